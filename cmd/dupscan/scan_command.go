package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dupscan/internal/app"
	"dupscan/internal/logging"
	"dupscan/internal/report"
	"dupscan/internal/scanner"
)

type scanOptions struct {
	chunkSize  int
	workers    int
	verify     bool
	output     string
	format     string
	noReport   bool
	noHistory  bool
	jsonOut    bool
	tableOut   bool
	noProgress bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Search a directory tree for duplicate files",
		Long: "Scan walks the directory tree (the configured root when none is given), " +
			"groups regular files by size and hashes only the files whose size is shared.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("chunk-size") {
				cfg.Scan.ChunkSize = opts.chunkSize
			}
			if flags.Changed("workers") {
				cfg.Scan.Workers = opts.workers
			}
			if flags.Changed("verify") {
				cfg.Scan.Verify = opts.verify
			}
			if flags.Changed("output") {
				cfg.Report.Path = opts.output
			}
			if flags.Changed("format") {
				cfg.Report.Format = opts.format
			}
			if opts.noReport {
				cfg.Report.Write = false
			}
			if opts.noHistory {
				cfg.History.Enabled = false
			}
			if err := cfg.Finalize(); err != nil {
				return err
			}

			root := cfg.Scan.Root
			if len(args) == 1 {
				root = args[0]
			}
			consoleOut := !opts.jsonOut && !opts.tableOut
			if consoleOut {
				fmt.Fprintf(cmd.OutOrStdout(), "Scanning '%s' for duplicate files...\n", root)
			}

			stderr := cmd.ErrOrStderr()
			var appOpts []app.Option
			var progress *progressObserver
			if !opts.noProgress && logging.IsTerminal(stderr) {
				progress = newProgressObserver(stderr)
				appOpts = append(appOpts, app.WithObserver(progress))
			}

			return ctx.withApp(func(application *app.App) error {
				rep, scanErr := application.Scan(cmd.Context(), root)
				if progress != nil {
					progress.Finish()
				}
				if rep == nil {
					return describeScanError(scanErr)
				}
				if err := printScanReport(cmd, rep, opts); err != nil {
					return err
				}
				if consoleOut && scanErr == nil && cfg.Report.Write {
					fmt.Fprintf(cmd.OutOrStdout(), "\nList of duplicate files also saved to '%s'\n", cfg.Report.Path)
				}
				printWarningFooter(stderr, rep)
				return scanErr
			}, appOpts...)
		},
	}

	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "Read buffer size in bytes used while hashing")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent hashing workers (0 uses one per CPU)")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Confirm digest matches with a byte-for-byte comparison")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Report file path")
	cmd.Flags().StringVar(&opts.format, "format", "", "Report file format (text or json)")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "Do not write a report file")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this scan in history")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&opts.tableOut, "table", false, "Print summary and duplicate sets as tables")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the hashing progress bar")
	cmd.MarkFlagsMutuallyExclusive("json", "table")

	return cmd
}

func printScanReport(cmd *cobra.Command, rep *report.Report, opts scanOptions) error {
	out := cmd.OutOrStdout()
	switch {
	case opts.jsonOut:
		return writeJSON(cmd, rep)
	case opts.tableOut:
		fmt.Fprintln(out, report.SummaryTable(rep))
		if len(rep.Groups) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.GroupsTable(rep))
		}
		return nil
	default:
		return report.WriteConsole(out, rep)
	}
}

func printWarningFooter(w io.Writer, rep *report.Report) {
	if len(rep.Warnings) == 0 {
		return
	}
	warn := color.New(color.FgYellow)
	warn.Fprintf(w, "\nSkipped %d entries that could not be read:\n", len(rep.Warnings))
	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "  %s (%s): %s\n", warning.Path, warning.Op, warning.Error)
	}
}

func describeScanError(err error) error {
	var notFound *scanner.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("directory %q not found", notFound.Path)
	}
	return err
}
