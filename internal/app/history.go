package app

import (
	"context"

	"dupscan/internal/report"
	"dupscan/internal/storage"
)

// Runs lists recorded scans, most recent first.
func (a *App) Runs(ctx context.Context, limit int) ([]storage.Run, error) {
	if a.store == nil {
		return nil, ErrHistoryDisabled
	}
	return a.store.ListRuns(ctx, limit)
}

// Run loads the recorded scan whose ID starts with idPrefix.
func (a *App) Run(ctx context.Context, idPrefix string) (*report.Report, error) {
	if a.store == nil {
		return nil, ErrHistoryDisabled
	}
	id, err := a.store.ResolveRunID(ctx, idPrefix)
	if err != nil {
		return nil, err
	}
	detail, err := a.store.LoadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return reportFromDetail(detail), nil
}

// DeleteRun removes the recorded scan whose ID starts with idPrefix and
// returns its full ID.
func (a *App) DeleteRun(ctx context.Context, idPrefix string) (string, error) {
	if a.store == nil {
		return "", ErrHistoryDisabled
	}
	id, err := a.store.ResolveRunID(ctx, idPrefix)
	if err != nil {
		return "", err
	}
	return id, a.store.DeleteRun(ctx, id)
}

func detailFromReport(rep *report.Report) storage.RunDetail {
	detail := storage.RunDetail{
		Run: storage.Run{
			ID:               rep.RunID,
			Root:             rep.Root,
			StartedAt:        rep.StartedAt,
			FinishedAt:       rep.FinishedAt,
			DuplicateSets:    rep.Summary.DuplicateSets,
			RedundantCopies:  rep.Summary.RedundantCopies,
			ReclaimableBytes: rep.Summary.ReclaimableBytes,
			FilesScanned:     rep.Summary.FilesScanned,
			FilesHashed:      rep.Summary.FilesHashed,
			BytesHashed:      rep.Summary.BytesHashed,
			Warnings:         rep.Summary.Warnings,
		},
	}
	for _, group := range rep.Groups {
		detail.Groups = append(detail.Groups, storage.Group{
			Digest: group.Digest,
			Size:   group.Size,
			Paths:  append([]string(nil), group.Paths...),
		})
	}
	for _, warning := range rep.Warnings {
		detail.Warnings = append(detail.Warnings, storage.Warning(warning))
	}
	return detail
}

func reportFromDetail(detail storage.RunDetail) *report.Report {
	run := detail.Run
	rep := &report.Report{
		RunID:      run.ID,
		Root:       run.Root,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary: report.Summary{
			DuplicateSets:    run.DuplicateSets,
			RedundantCopies:  run.RedundantCopies,
			ReclaimableBytes: run.ReclaimableBytes,
			FilesScanned:     run.FilesScanned,
			FilesHashed:      run.FilesHashed,
			BytesHashed:      run.BytesHashed,
			Warnings:         run.Warnings,
		},
		Groups: make([]report.Group, 0, len(detail.Groups)),
	}
	for _, group := range detail.Groups {
		rep.Groups = append(rep.Groups, report.Group{
			Digest: group.Digest,
			Size:   group.Size,
			Paths:  group.Paths,
		})
	}
	for _, warning := range detail.Warnings {
		rep.Warnings = append(rep.Warnings, report.Warning(warning))
	}
	return rep
}
