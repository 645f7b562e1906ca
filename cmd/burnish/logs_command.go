package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"burnish/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logs.Path(cfg.Paths.LogDir)
			out := cmd.OutOrStdout()

			lines, offset, err := logs.LastLines(path, lineCount)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(lines) == 0 {
					fmt.Fprintf(out, "No log output yet at %s\n", path)
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	return cmd
}
