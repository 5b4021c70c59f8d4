// Package report implements odometer report generation: one developer
// token per request, a strictly sequential per-vehicle loop whose failures
// degrade to sentinel rows, and a CSV artifact per run.
package report

import (
	"context"
	"strconv"
	"time"

	"github.com/fleetlens/fleetlens/internal/errors"
	"github.com/fleetlens/fleetlens/internal/logging"
	"github.com/fleetlens/fleetlens/internal/metrics"
	"github.com/fleetlens/fleetlens/internal/models"
	"github.com/fleetlens/fleetlens/internal/store"
	"github.com/fleetlens/fleetlens/internal/telematics"
)

// VendorClient is the slice of the vendor boundary the generator needs.
type VendorClient interface {
	ExchangeDeveloperToken(ctx context.Context, record *models.APIConfig) (*telematics.DeveloperToken, error)
	GetVehicleToken(ctx context.Context, developerToken, vehicleID string, privileges []int) (*telematics.VehicleToken, error)
	GetVehicleSignals(ctx context.Context, vehicleToken string, tokenID int64, startDate, endDate string) (*telematics.VehicleSignals, error)
}

// Request is one report-generation request.
type Request struct {
	VehicleTokenIDs []string
	StartDate       string // YYYY-MM-DD
	EndDate         string // YYYY-MM-DD
}

// Generator produces CSV odometer reports.
type Generator struct {
	vendor  VendorClient
	configs *store.ConfigStore
	reports *store.ReportStore
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(vendor VendorClient, configs *store.ConfigStore, reports *store.ReportStore, logger *logging.Logger, m *metrics.Metrics) *Generator {
	return &Generator{
		vendor:  vendor,
		configs: configs,
		reports: reports,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Generate runs the full report pipeline. Validation and authentication
// failures abort the request; per-vehicle failures never do.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.ReportResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	record := g.configs.Load()
	if record == nil {
		return nil, &errors.ErrConfigMissing{}
	}

	devToken, err := g.vendor.ExchangeDeveloperToken(ctx, record)
	if err != nil {
		return nil, err
	}
	credential := models.NewCredential(devToken.AccessToken, "developer",
		g.now().Add(time.Duration(devToken.ExpiresIn)*time.Second))

	rows := make([]models.ReportRow, 0, len(req.VehicleTokenIDs))
	failed := 0
	for _, vehicleID := range req.VehicleTokenIDs {
		vehicleRows, err := g.collectVehicleRows(ctx, credential, vehicleID, req.StartDate, req.EndDate)
		if err != nil {
			// Failure isolation unit is one vehicle: log, append the
			// sentinel row, and keep going.
			g.logger.WarnWithContext(ctx, "vehicle data retrieval failed",
				"token_id", vehicleID,
				"error", err.Error(),
			)
			rows = append(rows, models.ErrorRow(vehicleID))
			failed++
			continue
		}
		rows = append(rows, vehicleRows...)
	}

	data, err := MarshalCSV(rows)
	if err != nil {
		return nil, err
	}

	filename := Filename(g.now().UTC())
	if _, err := g.reports.Save(data, filename); err != nil {
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.RecordReport(len(req.VehicleTokenIDs), failed, len(rows))
	}
	g.logger.InfoWithContext(ctx, "report generated",
		"filename", filename,
		"vehicles", len(req.VehicleTokenIDs),
		"failed_vehicles", failed,
		"rows", len(rows),
	)

	return &models.ReportResult{
		Filename:    filename,
		RecordCount: len(rows),
		DownloadURL: "/api/reports/download/" + filename,
	}, nil
}

// collectVehicleRows exchanges a telemetry-read token for one vehicle and
// converts its signal series to report rows.
func (g *Generator) collectVehicleRows(ctx context.Context, developer models.Credential, vehicleID, startDate, endDate string) ([]models.ReportRow, error) {
	vehicleToken, err := g.vendor.GetVehicleToken(ctx, developer.Token(), vehicleID,
		[]int{telematics.PrivilegeTelemetryRead})
	if err != nil {
		return nil, err
	}

	tokenID, err := strconv.ParseInt(vehicleID, 10, 64)
	if err != nil {
		return nil, &errors.ErrValidation{Msg: "invalid vehicle token id: " + vehicleID}
	}

	signals, err := g.vendor.GetVehicleSignals(ctx, vehicleToken.Token, tokenID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	vin := signals.VIN
	if vin == "" {
		vin = models.NotAvailable
	}

	// No samples is not an error: one placeholder row keeps the vehicle in
	// the report.
	if len(signals.Signals) == 0 {
		return []models.ReportRow{{
			TokenID:           vehicleID,
			VIN:               vin,
			Timestamp:         models.NotAvailable,
			OdometerReading:   models.NotAvailable,
			TravelledDistance: 0,
		}}, nil
	}

	rows := make([]models.ReportRow, 0, len(signals.Signals))
	previous := 0.0
	for i, sample := range signals.Signals {
		reading := 0.0
		if sample.Odometer != nil {
			reading = *sample.Odometer
		}

		// First sample has no baseline. Later samples subtract the raw
		// (possibly defaulted) prior reading; a non-monotonic feed yields
		// negative distances on purpose.
		distance := 0.0
		if i > 0 {
			distance = reading - previous
		}
		previous = reading

		rows = append(rows, models.ReportRow{
			TokenID:           vehicleID,
			VIN:               vin,
			Timestamp:         sample.Timestamp,
			OdometerReading:   strconv.FormatFloat(reading, 'f', -1, 64),
			TravelledDistance: distance,
		})
	}

	return rows, nil
}

func validate(req Request) error {
	if len(req.VehicleTokenIDs) == 0 {
		return &errors.ErrValidation{Msg: "vehicleTokenIds must not be empty"}
	}
	if req.StartDate == "" || req.EndDate == "" {
		return &errors.ErrValidation{Msg: "startDate and endDate are required"}
	}
	if _, err := time.Parse("2006-01-02", req.StartDate); err != nil {
		return &errors.ErrValidation{Msg: "startDate must be YYYY-MM-DD"}
	}
	if _, err := time.Parse("2006-01-02", req.EndDate); err != nil {
		return &errors.ErrValidation{Msg: "endDate must be YYYY-MM-DD"}
	}
	return nil
}
