package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/config"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, svc *api.SessionService) error {
				sessions, err := svc.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}

				filter := strings.ToLower(strings.TrimSpace(statusFilter))
				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					if filter != "" && session.Status != filter {
						continue
					}
					phase := session.ProgressPhase
					if session.ErrorMessage != "" {
						phase = session.ErrorMessage
					}
					rows = append(rows, []string{
						shortID(session.ID),
						session.Title,
						session.Status,
						phase,
						strconv.Itoa(session.FallbackSegments),
						session.UpdatedAt,
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No sessions")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Status", "Phase", "Fallback", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only show sessions with this status")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
