package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"burnish/internal/asr"
	"burnish/internal/config"
	"burnish/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var title string
	var language string
	var variant string

	cmd := &cobra.Command{
		Use:   "import <export.json>",
		Short: "Import an ASR export as a new session",
		Long: "Import decodes a diarized ASR export (segment-level or word-level " +
			"JSON), stores its raw segments, and queues the session for the " +
			"daemon to process.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				export, err := asr.Decode(data, asr.Options{WordGapMS: cfg.Ingest.WordGapMS})
				if err != nil {
					return fmt.Errorf("decode export: %w", err)
				}

				sessionTitle := strings.TrimSpace(title)
				if sessionTitle == "" {
					sessionTitle = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}
				sessionLanguage := strings.TrimSpace(language)
				if sessionLanguage == "" {
					sessionLanguage = export.Language
				}

				session, err := st.NewSession(cmd.Context(), sessionTitle, sessionLanguage, strings.TrimSpace(variant))
				if err != nil {
					return fmt.Errorf("create session: %w", err)
				}
				if err := st.SaveRawSegments(cmd.Context(), session.ID, export.Segments); err != nil {
					return fmt.Errorf("store raw segments: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d segments as session %s\n", len(export.Segments), session.ID)
				fmt.Fprintln(out, "The daemon will pick it up; watch it with `burnish sessions`.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Session title (defaults to the file name)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Transcript language (defaults to the export's language, then config)")
	cmd.Flags().StringVar(&variant, "variant", "", "Script variant: traditional or simplified (defaults to config)")
	return cmd
}
