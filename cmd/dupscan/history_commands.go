package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dupscan/internal/app"
	"dupscan/internal/report"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withApp(func(application *app.App) error {
				runs, err := application.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No scans recorded")
					return nil
				}
				fmt.Fprintln(out, report.RunsTable(runs))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of scans to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	cmd.AddCommand(newHistoryRemoveCommand(ctx))
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a recorded scan",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(application *app.App) error {
				id, err := application.DeleteRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted scan %s\n", id)
				return nil
			})
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var tableOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the duplicate sets of a recorded scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(application *app.App) error {
				rep, err := application.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printScanReport(cmd, rep, scanOptions{jsonOut: jsonOut, tableOut: tableOut})
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&tableOut, "table", false, "Print summary and duplicate sets as tables")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
	return cmd
}
