package report

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"RecordSync/internal/domain"
)

// Stats is the read-only summary of a job log.
type Stats struct {
	Total       int
	Found       int
	NotFound    int
	Errors      int
	LastUpdated time.Time
}

// Summarize counts outcomes directly rather than trusting the stored totals.
func Summarize(log domain.JobLog) Stats {
	s := Stats{Total: len(log.Outcomes), LastUpdated: log.LastUpdated}
	for _, o := range log.Outcomes {
		switch {
		case o.Failed():
			s.Errors++
		case o.Found:
			s.Found++
		default:
			s.NotFound++
		}
	}
	return s
}

// RenderStats prints the counters as a two-column table.
func RenderStats(w io.Writer, s Stats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"項目", "件数"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	lastUpdated := "-"
	if !s.LastUpdated.IsZero() {
		lastUpdated = s.LastUpdated.Format(time.RFC3339)
	}

	table.AppendBulk([][]string{
		{"総検索数", strconv.Itoa(s.Total)},
		{"見つかった", strconv.Itoa(s.Found)},
		{"見つからなかった", strconv.Itoa(s.NotFound)},
		{"エラー", strconv.Itoa(s.Errors)},
		{"最終更新", lastUpdated},
	})
	table.Render()
}
