package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/config"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <session> <segment> <text>",
		Short: "Replace the text of one transcript segment",
		Long: "Edit overwrites the cleaned text of a single segment and marks " +
			"it as hand-edited. The raw import is untouched and the edit " +
			"survives reprocessing of other segments.",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := strconv.Atoi(args[1])
			if err != nil || seq < 1 {
				return fmt.Errorf("invalid segment number %q", args[1])
			}
			text := strings.TrimSpace(strings.Join(args[2:], " "))
			if text == "" {
				return fmt.Errorf("replacement text cannot be empty")
			}
			return ctx.withService(func(_ *config.Config, svc *api.SessionService) error {
				id, err := resolveSessionID(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				if err := svc.EditSegmentText(cmd.Context(), id, seq, text); err != nil {
					return fmt.Errorf("edit segment: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated segment %d\n", seq)
				return nil
			})
		},
	}
}
