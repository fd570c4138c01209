package report

import (
	"time"

	"dupscan/internal/scanner"
)

// Group is one duplicate set as it appears in a report.
type Group struct {
	Digest string   `json:"digest"`
	Size   int64    `json:"size"`
	Paths  []string `json:"paths"`
}

// RedundantCopies is the number of members beyond the first.
func (g Group) RedundantCopies() int {
	if len(g.Paths) == 0 {
		return 0
	}
	return len(g.Paths) - 1
}

// Warning is a skipped entry as it appears in a report.
type Warning struct {
	Path  string `json:"path"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// Summary aggregates the statistics printed after a scan.
type Summary struct {
	DuplicateSets    int   `json:"duplicate_sets"`
	RedundantCopies  int   `json:"redundant_copies"`
	ReclaimableBytes int64 `json:"reclaimable_bytes"`
	FilesScanned     int   `json:"files_scanned"`
	FilesHashed      int   `json:"files_hashed"`
	BytesHashed      int64 `json:"bytes_hashed"`
	Warnings         int   `json:"warnings"`
}

// Report is the consumer-facing view of a finished scan.
type Report struct {
	RunID      string    `json:"run_id,omitempty"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
	Groups     []Group   `json:"groups"`
	Warnings   []Warning `json:"warnings,omitempty"`
}

// Build converts a scan result into a report. Group order is preserved.
func Build(result *scanner.Result, startedAt, finishedAt time.Time) *Report {
	rep := &Report{
		Root:       result.Root,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Groups:     make([]Group, 0, len(result.Groups)),
	}

	keys := result.Keys()
	for i, group := range result.Groups {
		paths := make([]string, len(group.Paths))
		copy(paths, group.Paths)
		rep.Groups = append(rep.Groups, Group{
			Digest: keys[i],
			Size:   group.Size,
			Paths:  paths,
		})
	}
	for _, warning := range result.Warnings {
		rep.Warnings = append(rep.Warnings, Warning{
			Path:  warning.Path,
			Op:    warning.Op,
			Error: warning.Err.Error(),
		})
	}

	rep.Summary = Summarize(rep.Groups)
	rep.Summary.FilesScanned = result.Stats.FilesSeen
	rep.Summary.FilesHashed = result.Stats.FilesHashed
	rep.Summary.BytesHashed = result.Stats.BytesHashed
	rep.Summary.Warnings = len(rep.Warnings)
	return rep
}

// Summarize computes the duplicate statistics over groups.
func Summarize(groups []Group) Summary {
	var summary Summary
	for _, group := range groups {
		if len(group.Paths) < 2 {
			continue
		}
		summary.DuplicateSets++
		summary.RedundantCopies += group.RedundantCopies()
		summary.ReclaimableBytes += group.Size * int64(group.RedundantCopies())
	}
	return summary
}

// Duration is the wall time the scan took.
func (r *Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
