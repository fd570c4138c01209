package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"dupscan/internal/config"
)

// ErrReportLocked is returned when another process is writing the same report.
var ErrReportLocked = errors.New("report file is locked by another dupscan process")

// WriteFile writes rep to path in the given format. The write holds an
// exclusive lock on path+".lock" and replaces the file atomically. The lock
// file is removed once the write is done so later scans of the report
// directory never see it.
func WriteFile(path, format string, rep *Report) (err error) {
	var write func(io.Writer, *Report) error
	switch format {
	case config.ReportFormatText, "":
		write = WriteText
	case config.ReportFormatJSON:
		write = WriteJSON
	default:
		return fmt.Errorf("report format: unsupported value %q", format)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire report lock: %w", err)
	}
	if !ok {
		return ErrReportLocked
	}
	defer func() { err = errors.Join(err, releaseLock(lock, lockPath)) }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp, rep); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

func releaseLock(lock *flock.Flock, path string) error {
	if err := lock.Unlock(); err != nil {
		return fmt.Errorf("release report lock: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove report lock: %w", err)
	}
	return nil
}
