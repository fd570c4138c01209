package storage

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when no stored run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRunID is returned when an ID prefix matches more than one run.
var ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")

// Run represents a persisted scan outcome.
type Run struct {
	ID               string    `json:"id"`
	Root             string    `json:"root"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	DuplicateSets    int       `json:"duplicate_sets"`
	RedundantCopies  int       `json:"redundant_copies"`
	ReclaimableBytes int64     `json:"reclaimable_bytes"`
	FilesScanned     int       `json:"files_scanned"`
	FilesHashed      int       `json:"files_hashed"`
	BytesHashed      int64     `json:"bytes_hashed"`
	Warnings         int       `json:"warnings"`
}

// Group is one persisted duplicate set of a run.
type Group struct {
	Digest string
	Size   int64
	Paths  []string
}

// Warning is one persisted skipped entry of a run.
type Warning struct {
	Path  string
	Op    string
	Error string
}

// RunDetail bundles a run with its groups and warnings.
type RunDetail struct {
	Run      Run
	Groups   []Group
	Warnings []Warning
}
