package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/config"
)

func newRoleCommand(ctx *commandContext) *cobra.Command {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Inspect and override speaker roles",
	}
	roleCmd.AddCommand(newRoleListCommand(ctx))
	roleCmd.AddCommand(newRoleSetCommand(ctx))
	return roleCmd
}

func newRoleListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <session>",
		Short: "List a session's speaker role assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, svc *api.SessionService) error {
				id, err := resolveSessionID(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				detail, err := svc.Describe(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("describe session: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(detail.Assignments) == 0 {
					fmt.Fprintln(out, "No role assignments yet")
					return nil
				}
				rows := make([][]string, 0, len(detail.Assignments))
				for _, a := range detail.Assignments {
					rows = append(rows, []string{a.SpeakerKey, a.Role, a.Source})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Speaker", "Role", "Source"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newRoleSetCommand(ctx *commandContext) *cobra.Command {
	var segmentSeq int
	var speaker string

	cmd := &cobra.Command{
		Use:   "set <session> <role>",
		Short: "Manually assign a role",
		Long: "Set overrides a role by hand. With --segment it pins exactly that " +
			"segment; with --speaker it assigns every non-pinned segment carrying " +
			"that speaker and records a manual assignment that automatic " +
			"inference never overwrites. Neither form re-runs correction.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(_ *config.Config, svc *api.SessionService) error {
				id, err := resolveSessionID(cmd.Context(), svc, args[0])
				if err != nil {
					return err
				}
				resp, err := svc.Override(cmd.Context(), id, api.OverrideRequest{
					SegmentSeq: segmentSeq,
					Speaker:    speaker,
					Role:       args[1],
				})
				if err != nil {
					return fmt.Errorf("set role: %w", err)
				}
				out := cmd.OutOrStdout()
				if resp.SpeakerKey != "" {
					fmt.Fprintf(out, "Assigned %s to %s (%d segments updated)\n", resp.Role, resp.SpeakerKey, resp.SegmentsUpdated)
				} else {
					fmt.Fprintf(out, "Pinned segment %d to %s\n", segmentSeq, resp.Role)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&segmentSeq, "segment", 0, "Pin exactly this segment sequence number")
	cmd.Flags().StringVar(&speaker, "speaker", "", "Assign by speaker tag or name")
	return cmd
}
