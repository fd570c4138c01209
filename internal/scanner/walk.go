package scanner

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"dupscan/internal/logging"
)

// GroupBySize walks root and buckets every regular file by its byte size.
// Symlinks count when they resolve to a regular file; symlinked directories
// are not descended.
func (f *Finder) GroupBySize(ctx context.Context, root string) (*SizeBuckets, error) {
	info, err := f.fs.Stat(root)
	if err != nil {
		return nil, &NotFoundError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Path: root, Err: errNotDirectory}
	}

	buckets := NewSizeBuckets()
	if err := f.walkDir(ctx, root, buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

func (f *Finder) walkDir(ctx context.Context, dir string, buckets *SizeBuckets) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := afero.ReadDir(f.fs, dir)
	if err != nil {
		f.sink.Warn(&AccessError{Path: dir, Op: OpReadDir, Err: err})
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Mode()
		switch {
		case mode.IsDir():
			subdirs = append(subdirs, path)
		case mode.IsRegular():
			buckets.Add(FileEntry{Path: path, Size: entry.Size()})
		case mode&fs.ModeSymlink != 0:
			f.addLinkTarget(path, buckets)
		default:
			f.logger.Debug("skipping non-regular file", logging.String("path", path))
		}
	}

	for _, sub := range subdirs {
		if err := f.walkDir(ctx, sub, buckets); err != nil {
			return err
		}
	}
	return nil
}

func (f *Finder) addLinkTarget(path string, buckets *SizeBuckets) {
	target, err := f.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(errBrokenLink, err)
		}
		f.sink.Warn(&AccessError{Path: path, Op: OpStat, Err: err})
		return
	}
	if !target.Mode().IsRegular() {
		f.logger.Debug("skipping link to non-regular file", logging.String("path", path))
		return
	}
	buckets.Add(FileEntry{Path: path, Size: target.Size()})
}
