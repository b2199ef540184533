// Package seedcmder provides the seed command that stocks a running larder
// server with a starter pantry.
package seedcmder

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/larder/api"
	"github.com/papercomputeco/larder/pkg/cliui"
	"github.com/papercomputeco/larder/pkg/client"
	"github.com/papercomputeco/larder/pkg/config"
)

const seedLongDesc string = `Add a starter pantry to a running larder server.

The ingredients are imported in one batch through the API, so the server's
storage driver decides where they end up.

Examples:
  larder seed
  larder seed --api-target http://localhost:8080`

const seedShortDesc string = "Add a starter pantry"

// starterPantry is a small, recipe friendly set of staples.
var starterPantry = []api.IngredientRequest{
	{Name: "Spaghetti", Category: "grains", Quantity: 500, Unit: "g"},
	{Name: "Rice", Category: "grains", Quantity: 1, Unit: "kg"},
	{Name: "Garlic", Category: "produce", Quantity: 1, Unit: "bulb"},
	{Name: "Onion", Category: "produce", Quantity: 3, Unit: "unit"},
	{Name: "Tomato", Category: "produce", Quantity: 4, Unit: "unit"},
	{Name: "Eggs", Category: "dairy", Quantity: 6, Unit: "unit"},
	{Name: "Butter", Category: "dairy", Quantity: 250, Unit: "g"},
	{Name: "Olive Oil", Category: "pantry", Quantity: 1, Unit: "bottle"},
	{Name: "Chili Flakes", Category: "spices", Quantity: 1, Unit: "jar"},
	{Name: "Parmesan", Category: "dairy", Quantity: 200, Unit: "g"},
}

type seedCommander struct {
	apiTarget string
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed(config.FlagAPITarget) {
				return nil
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cmder.apiTarget = cfg.Client.APITarget
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), client.New(cmder.apiTarget))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *seedCommander) run(ctx context.Context, out io.Writer, server *client.Client) error {
	var imported int
	if err := cliui.Step(out, "Importing starter pantry", func() error {
		var err error
		imported, err = server.ImportIngredients(ctx, starterPantry)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Seeded %s ingredients into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(imported)),
		cliui.DimStyle.Render(c.apiTarget),
	)
	return nil
}
