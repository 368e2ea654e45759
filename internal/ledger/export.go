package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// CSVHeader is the column order of the tabular export.
var CSVHeader = []string{"vehicle_id", "vehicle_class", "frame_index", "recorded_at", "evidence_path"}

// WriteCSV serialises the current records as CSV, one row per violation in
// confirmation order. The ledger is not mutated; exporting twice over the
// same contents produces identical output. Write errors are returned to the
// caller and leave the ledger intact for retry.
func (l *Ledger) WriteCSV(w io.Writer) error {
	records := l.Records()

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Identity,
			rec.Class,
			fmt.Sprintf("%d", rec.FrameIndex),
			rec.RecordedAt.UTC().Format(time.RFC3339),
			rec.EvidencePath,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
