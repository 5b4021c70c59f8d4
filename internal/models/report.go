package models

// ErrorSentinel marks report fields for a vehicle whose data retrieval
// failed entirely. One sentinel row replaces the vehicle's rows so the
// batch keeps row-per-vehicle accounting without aborting.
const ErrorSentinel = "ERROR"

// ReportRow is one row of a generated odometer report. OdometerReading is
// a string so it can carry the "N/A" and "ERROR" markers alongside numeric
// readings.
type ReportRow struct {
	TokenID           string  `json:"tokenId"`
	VIN               string  `json:"vin"`
	Timestamp         string  `json:"timestamp"`
	OdometerReading   string  `json:"odometerReading"`
	TravelledDistance float64 `json:"travelledDistance"`
}

// ErrorRow builds the sentinel row for a failed vehicle.
func ErrorRow(tokenID string) ReportRow {
	return ReportRow{
		TokenID:           tokenID,
		VIN:               ErrorSentinel,
		Timestamp:         ErrorSentinel,
		OdometerReading:   ErrorSentinel,
		TravelledDistance: 0,
	}
}

// ReportResult describes a completed report generation.
type ReportResult struct {
	Filename    string `json:"filename"`
	RecordCount int    `json:"recordCount"`
	DownloadURL string `json:"downloadUrl"`
}
