package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"voice-campaign-platform/internal/callstore"
)

// csvColumns is the exported column order. Downstream consumers key on
// these headers, so the order is part of the contract.
var csvColumns = []string{
	"name",
	"phone_number",
	"language",
	"call_id",
	"status",
	"duration_seconds",
	"call_start_time",
	"call_end_time",
	"cost",
	"error_message",
}

// Exporter snapshots the call record store as CSV.
type Exporter struct {
	store callstore.Store
}

func NewExporter(store callstore.Store) *Exporter {
	return &Exporter{store: store}
}

// Filename names a snapshot taken at t, e.g. call_status_log_20260829_153000.csv.
func Filename(t time.Time) string {
	return "call_status_log_" + t.Format("20060102_150405") + ".csv"
}

// WriteCSV writes the current store snapshot to w and reports how many
// records it contained.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	recs, err := e.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list call records: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return 0, err
	}
	for _, rec := range recs {
		row := []string{
			rec.Name,
			rec.PhoneNumber,
			rec.Language,
			rec.CallID,
			rec.Status,
			strconv.Itoa(rec.DurationSeconds),
			rec.CallStartTime,
			rec.CallEndTime,
			strconv.FormatFloat(rec.Cost, 'f', -1, 64),
			rec.ErrorMessage,
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(recs), cw.Error()
}
