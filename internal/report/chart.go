package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/laneguard/internal/ledger"
)

// WriteTimelineChart renders an HTML bar chart of confirmations bucketed by
// recording time. Bucket must be positive; one minute suits typical runs.
func WriteTimelineChart(w io.Writer, records []ledger.ViolationRecord, bucket time.Duration) error {
	if bucket <= 0 {
		return fmt.Errorf("bucket duration must be positive, got %v", bucket)
	}

	counts := make(map[time.Time]int)
	for _, rec := range records {
		counts[rec.RecordedAt.UTC().Truncate(bucket)]++
	}

	buckets := make([]time.Time, 0, len(counts))
	for t := range counts {
		buckets = append(buckets, t)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	labels := make([]string, 0, len(buckets))
	data := make([]opts.BarData, 0, len(buckets))
	for _, t := range buckets {
		labels = append(labels, t.Format("15:04:05"))
		data = append(data, opts.BarData{Value: counts[t]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Confirmed lane violations",
			Subtitle: fmt.Sprintf("%d violations, %v buckets", len(records), bucket),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	bar.SetXAxis(labels).AddSeries("violations", data)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render timeline chart: %w", err)
	}
	return nil
}
