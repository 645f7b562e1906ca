package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/config"
)

func newReprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <session>",
		Short: "Queue a session for another processing run",
		Long: "Reprocess resets a session back to pending so the daemon picks " +
			"it up again. Manual role assignments and pinned segments are " +
			"preserved across the rerun.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, svc *api.SessionService) error {
				id, err := resolveSessionID(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				if err := svc.Reprocess(cmd.Context(), id); err != nil {
					return fmt.Errorf("reprocess session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s queued for reprocessing\n", shortID(id))
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <session>",
		Aliases: []string{"remove"},
		Short:   "Delete a session and all of its data",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, svc *api.SessionService) error {
				id, err := resolveSessionID(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", shortID(id))
				return nil
			})
		},
	}
}
