package telematics

import (
	"context"
	"strconv"

	"github.com/fleetlens/fleetlens/internal/errors"
)

const vehicleSignalsQuery = `
query VehicleSignals($tokenId: Int!, $from: Time!, $to: Time!) {
  vinVCLatest(tokenId: $tokenId) {
    vin
  }
  signals(tokenId: $tokenId, interval: "24h", from: $from, to: $to) {
    timestamp
    powertrainTransmissionTravelledDistance(agg: MAX)
  }
}`

// SignalPoint is one 24-hour telemetry bucket. Odometer is the MAX
// aggregated absolute reading in the bucket, nil when the vendor reported
// no value.
type SignalPoint struct {
	Timestamp string   `json:"timestamp"`
	Odometer  *float64 `json:"powertrainTransmissionTravelledDistance"`
}

// VehicleSignals carries one vehicle's VIN and odometer time series as
// returned by the vendor. Ordering is the vendor's, not re-sorted here.
type VehicleSignals struct {
	VIN     string
	Signals []SignalPoint
}

type signalsData struct {
	VINVCLatest *struct {
		VIN string `json:"vin"`
	} `json:"vinVCLatest"`
	Signals []SignalPoint `json:"signals"`
}

// GetVehicleSignals queries the telemetry service for a vehicle's latest
// VIN and its odometer series over [startDate 00:00:00Z, endDate
// 23:59:59Z] inclusive, aggregated at 24-hour granularity with MAX.
// Dates are YYYY-MM-DD.
func (c *Client) GetVehicleSignals(ctx context.Context, vehicleToken string, tokenID int64, startDate, endDate string) (*VehicleSignals, error) {
	variables := map[string]interface{}{
		"tokenId": tokenID,
		"from":    startDate + "T00:00:00Z",
		"to":      endDate + "T23:59:59Z",
	}

	var data signalsData
	if err := c.queryGraphQL(ctx, c.snapshot().telemetry+"/query", vehicleToken, vehicleSignalsQuery, variables, &data); err != nil {
		c.logger.ErrorWithContext(ctx, "telemetry query failed",
			"token_id", strconv.FormatInt(tokenID, 10),
			"error", err.Error(),
		)
		return nil, &errors.ErrUpstreamQuery{Operation: "signals", Err: err}
	}

	signals := &VehicleSignals{Signals: data.Signals}
	if data.VINVCLatest != nil {
		signals.VIN = data.VINVCLatest.VIN
	}

	return signals, nil
}
