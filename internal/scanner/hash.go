package scanner

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// HashFile streams the file at path through MD5 using buf as the read buffer
// and returns the digest and the number of bytes read.
func HashFile(fsys afero.Fs, path string, buf []byte) (digest Digest, n int64, err error) {
	if len(buf) == 0 {
		buf = make([]byte, DefaultChunkSize)
	}

	var file afero.File
	if file, err = fsys.Open(path); err != nil {
		return digest, 0, fmt.Errorf("open: %w", err)
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	hasher := md5.New()
	for {
		read, readErr := file.Read(buf)
		if read > 0 {
			hasher.Write(buf[:read])
			n += int64(read)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return digest, n, fmt.Errorf("read: %w", readErr)
		}
	}

	copy(digest[:], hasher.Sum(nil))
	return digest, n, nil
}

// HashBuckets hashes every bucket holding more than one path and returns the
// resulting digest groups with at least two members, in canonical order.
func (f *Finder) HashBuckets(ctx context.Context, buckets *SizeBuckets) ([]DuplicateGroup, error) {
	groups, _, err := f.hashBuckets(ctx, buckets)
	if err != nil {
		return nil, err
	}
	sortGroups(groups)
	return groups, nil
}

type hashJob struct {
	seq  int
	path string
	size int64
}

type hashResult struct {
	hashJob
	digest Digest
	read   int64
	err    error
}

type groupKey struct {
	size   int64
	digest Digest
}

func (f *Finder) hashBuckets(ctx context.Context, buckets *SizeBuckets) ([]DuplicateGroup, Stats, error) {
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan hashJob)
	results := make(chan hashResult)

	g.Go(func() error {
		defer close(jobs)
		seq := 0
		for _, size := range buckets.Sizes() {
			paths := buckets.Paths(size)
			if len(paths) < 2 {
				continue
			}
			for _, path := range paths {
				select {
				case jobs <- hashJob{seq: seq, path: path, size: size}:
				case <-gctx.Done():
					return gctx.Err()
				}
				seq++
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(results)
		var pool errgroup.Group
		for i := 0; i < f.workers; i++ {
			pool.Go(func() error {
				buf := make([]byte, f.chunkSize)
				for job := range jobs {
					digest, read, err := HashFile(f.fs, job.path, buf)
					select {
					case results <- hashResult{hashJob: job, digest: digest, read: read, err: err}:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
				return nil
			})
		}
		return pool.Wait()
	})

	members := make(map[groupKey][]hashResult)
	for res := range results {
		if res.err != nil {
			f.sink.Warn(&AccessError{Path: res.path, Op: OpHash, Err: res.err})
			continue
		}
		stats.FilesHashed++
		stats.BytesHashed += res.read
		f.observer.FileHashed(res.path, res.read)

		key := groupKey{size: res.size, digest: res.digest}
		members[key] = append(members[key], res)
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	groups := make([]DuplicateGroup, 0, len(members))
	for key, hashed := range members {
		if len(hashed) < 2 {
			continue
		}
		sort.Slice(hashed, func(i, j int) bool { return hashed[i].seq < hashed[j].seq })
		paths := make([]string, len(hashed))
		for i := range hashed {
			paths[i] = hashed[i].path
		}
		groups = append(groups, DuplicateGroup{Digest: key.digest, Size: key.size, Paths: paths})
	}
	return groups, stats, nil
}
