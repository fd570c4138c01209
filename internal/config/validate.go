package config

import (
	"errors"
	"fmt"
)

const minChunkSize = 4 * 1024

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Root == "" {
		return errors.New("scan.root must be set")
	}
	if c.Scan.ChunkSize < minChunkSize {
		return fmt.Errorf("scan.chunk_size must be at least %d bytes, got %d", minChunkSize, c.Scan.ChunkSize)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	return nil
}

func (c *Config) validateReport() error {
	switch c.Report.Format {
	case ReportFormatText, ReportFormatJSON:
	default:
		return fmt.Errorf("report.format: unsupported value %q (want %q or %q)", c.Report.Format, ReportFormatText, ReportFormatJSON)
	}
	if c.Report.Write && c.Report.Path == "" {
		return errors.New("report.path must be set when report.write is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
