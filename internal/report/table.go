package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"dupscan/internal/storage"
)

// column is a table header; counts and sizes are right aligned.
type column struct {
	title   string
	numeric bool
}

func renderTable(columns []column, rows []table.Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func ibytes(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

// SummaryTable renders the run statistics.
func SummaryTable(rep *Report) string {
	s := rep.Summary
	rows := []table.Row{
		{"Duplicate sets", s.DuplicateSets},
		{"Redundant copies", s.RedundantCopies},
		{"Reclaimable", ibytes(s.ReclaimableBytes)},
		{"Files scanned", s.FilesScanned},
		{"Files hashed", fmt.Sprintf("%d (%s)", s.FilesHashed, ibytes(s.BytesHashed))},
		{"Skipped entries", s.Warnings},
	}
	if d := rep.Duration(); d > 0 {
		rows = append(rows, table.Row{"Duration", d.Round(time.Millisecond).String()})
	}
	return renderTable([]column{{title: "Metric"}, {title: "Value", numeric: true}}, rows)
}

// GroupsTable renders one row per duplicate set, paths stacked in one cell.
func GroupsTable(rep *Report) string {
	rows := make([]table.Row, 0, len(rep.Groups))
	for i, group := range rep.Groups {
		rows = append(rows, table.Row{
			i + 1,
			shortDigest(group.Digest),
			ibytes(group.Size),
			len(group.Paths),
			strings.Join(group.Paths, "\n"),
		})
	}
	return renderTable([]column{
		{title: "#", numeric: true},
		{title: "Digest"},
		{title: "Size", numeric: true},
		{title: "Files", numeric: true},
		{title: "Paths"},
	}, rows)
}

// RunsTable renders recorded scans, newest first as given.
func RunsTable(runs []storage.Run) string {
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, table.Row{
			id,
			run.StartedAt.Local().Format(time.DateTime),
			run.Root,
			run.DuplicateSets,
			run.RedundantCopies,
			ibytes(run.ReclaimableBytes),
			run.Warnings,
		})
	}
	return renderTable([]column{
		{title: "ID"},
		{title: "Started"},
		{title: "Root"},
		{title: "Sets", numeric: true},
		{title: "Copies", numeric: true},
		{title: "Reclaimable", numeric: true},
		{title: "Skipped", numeric: true},
	}, rows)
}
