package testsupport

import (
	"path/filepath"
	"testing"

	"dupscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a finalized config whose outputs live in a per-test
// temp directory. It applies any provided options before finalizing.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Scan.Root = filepath.Join(base, "tree")
	cfgVal.Scan.Workers = 2
	cfgVal.Report.Path = filepath.Join(base, "report", "local_duplicates.txt")
	cfgVal.History.DBPath = filepath.Join(base, "history.db")
	cfgVal.Server.Listen = "127.0.0.1:0"
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Finalize(); err != nil {
		t.Fatalf("finalize test config: %v", err)
	}
	return builder.cfg
}

// WithRoot points the scan at root.
func WithRoot(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Root = root
	}
}

// WithoutHistory disables the history database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithoutReport disables the report file.
func WithoutReport() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Report.Write = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.History.DBPath)
}
