package scanner

import (
	"errors"
	"fmt"
)

// NotFoundError reports a scan root that does not exist or is not a directory.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory %q not found: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("directory %q not found", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Operations recorded on an AccessError.
const (
	OpStat    = "stat"
	OpReadDir = "readdir"
	OpHash    = "hash"
	OpVerify  = "verify"
)

// AccessError describes a single entry that could not be inspected. It never
// aborts a scan; the entry is left out of the result.
type AccessError struct {
	Path string
	Op   string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// ScanError wraps the fatal outcome of a scan.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

var errNotDirectory = errors.New("not a directory")

var errBrokenLink = errors.New("broken symbolic link")
