package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"burnish/internal/api"
	"burnish/internal/config"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var withTiming bool

	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Display a session's role-labeled transcript",
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
				transcript, err := svc.Transcript(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("load transcript: %w", err)
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(struct {
						Session  api.Session             `json:"session"`
						Segments []api.TranscriptSegment `json:"segments"`
					}{detail.Session, transcript.Segments})
				}

				fmt.Fprintf(out, "%s (%s)\n", detail.Session.Title, detail.Session.Status)
				if detail.Session.FallbackSegments > 0 {
					fmt.Fprintf(out, "%d segments kept their raw text\n", detail.Session.FallbackSegments)
				}
				fmt.Fprintln(out)

				for _, seg := range transcript.Segments {
					label := seg.Role
					if label == "unknown" {
						label = seg.SpeakerKey
					}
					marker := ""
					if seg.Quality == "fallback" {
						marker = " *"
					}
					if seg.Edited {
						marker += " (edited)"
					}
					if withTiming {
						fmt.Fprintf(out, "[%s] %s: %s%s\n", formatTimestamp(seg.StartMS), label, seg.Text, marker)
					} else {
						fmt.Fprintf(out, "%s: %s%s\n", label, seg.Text, marker)
					}
				}
				if len(transcript.Segments) == 0 {
					fmt.Fprintln(out, "No cleaned transcript yet")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the transcript as JSON")
	cmd.Flags().BoolVar(&withTiming, "timing", false, "Prefix each segment with its start time")
	return cmd
}

func formatTimestamp(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
