package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"burnish/internal/config"
	"burnish/internal/preflight"
	"burnish/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session counts and service readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				health, err := st.Health(cmd.Context())
				if err != nil {
					return fmt.Errorf("session health: %w", err)
				}
				for _, line := range renderSectionHeader("Sessions", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Total", "Pending", "Processing", "Completed", "Failed"},
					[][]string{{
						strconv.Itoa(health.Total),
						strconv.Itoa(health.Pending),
						strconv.Itoa(health.Processing),
						strconv.Itoa(health.Completed),
						strconv.Itoa(health.Failed),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))

				if skipChecks {
					return nil
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Services", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, result := range preflight.RunAll(cmd.Context(), cfg) {
					kind := statusError
					switch {
					case result.Passed:
						kind = statusOK
					case result.Advisory:
						kind = statusWarn
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "no-checks", false, "Skip service readiness checks")
	return cmd
}
