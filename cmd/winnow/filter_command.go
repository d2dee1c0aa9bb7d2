package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"winnow/internal/classify"
	"winnow/internal/extract"
	"winnow/internal/logging"
	"winnow/internal/page"
	"winnow/internal/scanner"
	"winnow/internal/settings"
)

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var urlFlag string
	var topicFlags []string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "filter <file.html>",
		Short: "Run the filtering pipeline once over a saved page snapshot",
		Long: "Parses a saved HTML snapshot, classifies its recommendation tiles " +
			"against the excluded topics, and prints the per-tile decisions. " +
			"Topics come from the settings store unless --topic is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			doc, err := page.Parse(urlFlag, string(source))
			if err != nil {
				return err
			}

			snap := settings.Snapshot{
				Topics:        topicFlags,
				DisplayAction: settings.DisplayAction(cfg.Filter.DisplayAction),
				Sensitivity:   cfg.Filter.Sensitivity,
			}
			if len(topicFlags) == 0 {
				err := ctx.withStore(func(store *settings.Store) error {
					stored, err := store.Snapshot(cmd.Context())
					if err != nil {
						return err
					}
					snap = stored
					return nil
				})
				if err != nil {
					return err
				}
			}

			logger, err := logging.New(logging.Options{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
			if err != nil {
				return err
			}
			gateway, err := classify.FromConfig(cfg, logger)
			if err != nil {
				return err
			}

			s := scanner.New(
				func() *page.Document { return doc },
				func(context.Context) (settings.Snapshot, error) { return snap, nil },
				gateway,
				logger,
			)
			if err := s.Scan(cmd.Context()); err != nil {
				return err
			}

			decisions := s.Decisions()
			var rows []table.Row
			for i, tile := range doc.Tiles() {
				tileContext, ok := extract.Context(tile)
				if !ok {
					tileContext = "(no context)"
				}
				rows = append(rows, table.Row{i + 1, tileContext, decisions[tile.ID()].String()})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No tiles found for mode %q\n", string(doc.Mode()))
				return nil
			}
			fmt.Fprintln(out, renderTable(table.Row{"#", "Context", "Decision"}, rows, 1))

			if outputFlag != "" {
				rendered, err := doc.Render()
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputFlag, []byte(rendered), 0o644); err != nil {
					return fmt.Errorf("write patched snapshot: %w", err)
				}
				fmt.Fprintf(out, "Wrote patched snapshot to %s\n", outputFlag)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "https://www.youtube.com/", "Page URL the snapshot was captured from")
	cmd.Flags().StringArrayVar(&topicFlags, "topic", nil, "Excluded topic (repeatable; overrides the settings store)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the patched HTML to this file")
	return cmd
}
