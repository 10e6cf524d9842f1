// Package export serializes query results to CSV and reads them back. The
// format is a thin projection of the sample log: a header row followed by
// RFC 3339 timestamp and app name columns; the idle flag is not exported.
package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/timescope/timescope/internal/models"
)

var header = []string{"Timestamp", "App Name"}

// WriteCSV writes samples in store order.
func WriteCSV(w io.Writer, samples []models.ActivitySample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for i := range samples {
		record := []string{
			samples[i].Timestamp.Format(time.RFC3339),
			samples[i].AppName,
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "failed to write CSV record")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV output")
}

// ReadCSV parses an exported file back into samples, preserving order.
// Malformed rows are skipped rather than aborting the import; the skipped
// count is returned so the caller can report it.
func ReadCSV(r io.Reader) (samples []models.ActivitySample, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first := true
	for {
		record, rerr := cr.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, skipped, errors.Wrap(rerr, "failed to read CSV")
		}

		if first {
			first = false
			if len(record) > 0 && record[0] == header[0] {
				continue
			}
		}

		if len(record) < 2 {
			skipped++
			continue
		}

		ts, perr := time.Parse(time.RFC3339, record[0])
		if perr != nil {
			skipped++
			continue
		}

		samples = append(samples, models.ActivitySample{
			Timestamp: ts,
			AppName:   record[1],
		})
	}

	return samples, skipped, nil
}
