package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"linketron/internal/app"
	"linketron/internal/config"
	"linketron/internal/logging"
	"linketron/internal/research"
)

func newResearchCommand(ctx *commandContext) *cobra.Command {
	var topic string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "research <lens>",
		Short: "Run one research lookup and print the briefing card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := args[0]
			if !strings.HasPrefix(key, "lens_") {
				key = "lens_" + key
			}

			lenses, err := config.LoadLenses(cfg.LensesFilePath)
			if err != nil {
				return err
			}
			catalog := research.NewCatalog(lenses...)
			if _, ok := catalog.Lookup(key, topic); !ok {
				if key == research.CustomLensKey {
					return fmt.Errorf("the custom lens needs --topic")
				}
				return fmt.Errorf("unknown lens %q (known: %s)", key, strings.Join(catalog.Keys(), ", "))
			}

			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			components, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			card := components.Researcher.Research(cmd.Context(), key, topic)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(card); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, research.FormatCard(card))
			}
			if card.Failed() {
				return fmt.Errorf("research failed: %s", card.OriginStory)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Topic for the custom lens")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full fact card as JSON")
	return cmd
}
