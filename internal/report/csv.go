package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/fleetlens/fleetlens/internal/models"
)

// csvHeader is the fixed column order of every report artifact.
var csvHeader = []string{"Token ID", "VIN", "Timestamp", "Odometer Reading", "Travelled Distance"}

// MarshalCSV renders report rows as a CSV document with the fixed header.
func MarshalCSV(rows []models.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.TokenID,
			row.VIN,
			row.Timestamp,
			row.OdometerReading,
			strconv.FormatFloat(row.TravelledDistance, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var filenameSanitizer = strings.NewReplacer(":", "-", ".", "-")

// Filename derives the artifact name from a UTC timestamp, with colons and
// dots replaced so the name is filesystem-safe.
func Filename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return "vehicle-report-" + filenameSanitizer.Replace(stamp) + ".csv"
}
