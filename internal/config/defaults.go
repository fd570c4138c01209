package config

import "runtime"

const (
	defaultConfigPath  = "~/.config/dupscan/config.toml"
	projectConfigName  = "dupscan.toml"
	defaultRoot        = "."
	defaultChunkSize   = 64 * 1024
	defaultReportPath  = "local_duplicates.txt"
	defaultReportFmt   = ReportFormatText
	defaultHistoryPath = "~/.local/share/dupscan/history.db"
	defaultListen      = "127.0.0.1:7488"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
)

// Report formats understood by the report writer.
const (
	ReportFormatText = "text"
	ReportFormatJSON = "json"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			Root:      defaultRoot,
			ChunkSize: defaultChunkSize,
			Workers:   0,
		},
		Report: Report{
			Path:   defaultReportPath,
			Format: defaultReportFmt,
			Write:  true,
		},
		History: History{
			Enabled: true,
			DBPath:  defaultHistoryPath,
		},
		Server: Server{
			Listen: defaultListen,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

func defaultWorkers() int {
	return runtime.NumCPU()
}
