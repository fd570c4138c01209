package scanner

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/spf13/afero"

	"dupscan/internal/logging"
)

// DefaultChunkSize is the read size used while hashing when none is configured.
const DefaultChunkSize = 64 * 1024

// Options configures a Finder. Zero values select defaults.
type Options struct {
	// ChunkSize bounds the buffer used per worker while reading file content.
	ChunkSize int

	// Workers is the number of concurrent hashing goroutines.
	Workers int

	// Verify enables the byte-for-byte comparison of every digest group.
	Verify bool

	Logger   *slog.Logger
	Warnings WarningSink
	Observer Observer
}

// Finder locates duplicate files on a filesystem.
type Finder struct {
	fs        afero.Fs
	chunkSize int
	workers   int
	verify    bool
	logger    *slog.Logger
	sink      WarningSink
	observer  Observer
}

// New constructs a Finder over fsys.
func New(fsys afero.Fs, opts Options) *Finder {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	logger := logging.NewComponentLogger(opts.Logger, "scanner")

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sink := opts.Warnings
	if sink == nil {
		sink = logSink{logger: logger}
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Finder{
		fs:        fsys,
		chunkSize: chunkSize,
		workers:   workers,
		verify:    opts.Verify,
		logger:    logger,
		sink:      sink,
		observer:  observer,
	}
}

// NewOS constructs a Finder over the host filesystem.
func NewOS(opts Options) *Finder {
	return New(afero.NewOsFs(), opts)
}

// FindDuplicates scans root with a default OS-backed Finder.
func FindDuplicates(ctx context.Context, root string) (*Result, error) {
	return NewOS(Options{}).FindDuplicates(ctx, root)
}

// FindDuplicates groups the regular files below root by size, hashes every
// size bucket with more than one member and returns the digest groups that
// hold at least two paths. Per-entry failures are collected in
// Result.Warnings; a missing root or a cancelled context yields a *ScanError.
func (f *Finder) FindDuplicates(ctx context.Context, root string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	collector := &collectingSink{next: f.sink}
	run := *f
	run.sink = collector

	logger := f.logger.With(logging.String("root", root))
	logger.Info("scanning directory")

	buckets, err := run.GroupBySize(ctx, root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	candidates, candidateBytes := buckets.Candidates()
	logger.Info("size grouping complete",
		logging.Int("files", buckets.Files()),
		logging.Int("sizes", buckets.Len()),
		logging.Int("candidates", candidates),
	)

	f.observer.HashingStarted(candidates, candidateBytes)
	groups, stats, err := run.hashBuckets(ctx, buckets)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	if f.verify {
		groups, err = run.verifyGroups(ctx, groups)
		if err != nil {
			return nil, &ScanError{Root: root, Err: err}
		}
	}
	sortGroups(groups)

	stats.FilesSeen = buckets.Files()
	stats.SizeBuckets = buckets.Len()

	warnings := collector.collected()
	logger.Info("scan complete",
		logging.Int("groups", len(groups)),
		logging.Int("files_hashed", stats.FilesHashed),
		logging.Int("warnings", len(warnings)),
	)

	return &Result{
		Root:     root,
		Groups:   groups,
		Warnings: warnings,
		Stats:    stats,
	}, nil
}
