package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"dupscan/internal/logging"
)

// verifyGroups confirms every group byte for byte. A group whose members turn
// out to differ is split; each class with two or more members is kept.
func (f *Finder) verifyGroups(ctx context.Context, groups []DuplicateGroup) ([]DuplicateGroup, error) {
	left := make([]byte, f.chunkSize)
	right := make([]byte, f.chunkSize)

	verified := make([]DuplicateGroup, 0, len(groups))
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		classes := f.partition(group.Paths, left, right)
		if len(classes) > 1 {
			f.logger.Warn("digest group split by content comparison",
				logging.String("digest", group.Digest.String()),
				logging.Int("classes", len(classes)),
			)
		}

		variant := 0
		for _, class := range classes {
			if len(class) < 2 {
				continue
			}
			verified = append(verified, DuplicateGroup{
				Digest:  group.Digest,
				Size:    group.Size,
				Paths:   class,
				Variant: variant,
			})
			variant++
		}
	}
	return verified, nil
}

// partition sorts paths into classes of identical content, preserving order.
func (f *Finder) partition(paths []string, left, right []byte) [][]string {
	var classes [][]string
	for _, path := range paths {
		placed := false
		for i := 0; i < len(classes); i++ {
			same, failed, err := compareFiles(f.fs, classes[i][0], path, left, right)
			if err != nil {
				f.sink.Warn(&AccessError{Path: failed, Op: OpVerify, Err: err})
				if failed == path {
					placed = true
					break
				}
				// The representative became unreadable. Its confirmed members
				// stay; the next one stands in and the comparison is retried.
				classes[i] = classes[i][1:]
				if len(classes[i]) == 0 {
					classes = append(classes[:i], classes[i+1:]...)
				}
				i--
				continue
			}
			if same {
				classes[i] = append(classes[i], path)
				placed = true
				break
			}
		}
		if !placed {
			classes = append(classes, []string{path})
		}
	}
	return classes
}

// compareFiles reports whether a and b hold the same bytes. On failure it
// returns the path that could not be read.
func compareFiles(fsys afero.Fs, a, b string, left, right []byte) (same bool, failed string, err error) {
	fa, err := fsys.Open(a)
	if err != nil {
		return false, a, fmt.Errorf("open: %w", err)
	}
	defer fa.Close()

	fb, err := fsys.Open(b)
	if err != nil {
		return false, b, fmt.Errorf("open: %w", err)
	}
	defer fb.Close()

	for {
		na, errA := io.ReadFull(fa, left)
		if errA != nil && !isShortRead(errA) {
			return false, a, fmt.Errorf("read: %w", errA)
		}
		nb, errB := io.ReadFull(fb, right)
		if errB != nil && !isShortRead(errB) {
			return false, b, fmt.Errorf("read: %w", errB)
		}

		if !bytes.Equal(left[:na], right[:nb]) {
			return false, "", nil
		}
		// Equal chunks have equal lengths, so both readers end together.
		if errA != nil {
			return true, "", nil
		}
	}
}

func isShortRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
