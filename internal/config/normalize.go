package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error

	c.Scan.Root = strings.TrimSpace(c.Scan.Root)
	if c.Scan.Root == "" {
		c.Scan.Root = defaultRoot
	}
	if c.Scan.Root, err = expandPath(c.Scan.Root); err != nil {
		return fmt.Errorf("scan.root: %w", err)
	}
	if c.Scan.ChunkSize == 0 {
		c.Scan.ChunkSize = defaultChunkSize
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = defaultWorkers()
	}

	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	if c.Report.Format == "" {
		c.Report.Format = defaultReportFmt
	}
	c.Report.Path = strings.TrimSpace(c.Report.Path)
	if c.Report.Path == "" {
		c.Report.Path = defaultReportPath
	}
	if c.Report.Path, err = expandPath(c.Report.Path); err != nil {
		return fmt.Errorf("report.path: %w", err)
	}

	c.History.DBPath = strings.TrimSpace(c.History.DBPath)
	if c.History.DBPath == "" {
		c.History.DBPath = defaultHistoryPath
	}
	if c.History.DBPath, err = expandPath(c.History.DBPath); err != nil {
		return fmt.Errorf("history.db_path: %w", err)
	}

	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}

	return nil
}
