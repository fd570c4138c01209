package scanner

import (
	"log/slog"
	"sync"

	"dupscan/internal/logging"
)

// WarningSink receives per-entry failures as they happen.
type WarningSink interface {
	Warn(err *AccessError)
}

// WarningFunc adapts a function to the WarningSink interface.
type WarningFunc func(err *AccessError)

// Warn calls fn(err).
func (fn WarningFunc) Warn(err *AccessError) { fn(err) }

// Observer is notified about hashing progress.
type Observer interface {
	HashingStarted(files int, bytes int64)
	FileHashed(path string, size int64)
}

type nopObserver struct{}

func (nopObserver) HashingStarted(int, int64) {}
func (nopObserver) FileHashed(string, int64)  {}

type logSink struct {
	logger *slog.Logger
}

func (s logSink) Warn(err *AccessError) {
	s.logger.Warn("skipping entry",
		logging.String("path", err.Path),
		logging.String("op", err.Op),
		logging.Error(err.Err),
	)
}

// collectingSink records every warning of one run before forwarding it.
type collectingSink struct {
	mu       sync.Mutex
	next     WarningSink
	warnings []*AccessError
}

func (s *collectingSink) Warn(err *AccessError) {
	s.mu.Lock()
	s.warnings = append(s.warnings, err)
	s.mu.Unlock()
	if s.next != nil {
		s.next.Warn(err)
	}
}

func (s *collectingSink) collected() []*AccessError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AccessError, len(s.warnings))
	copy(out, s.warnings)
	return out
}
