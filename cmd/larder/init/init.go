// Package initcmder provides the init command for initializing a local
// .larder directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/larder/pkg/cliui"
	"github.com/papercomputeco/larder/pkg/config"
)

const dirName = ".larder"

const initLongDesc string = `Initialize a new .larder/ directory in the current working directory.

Creates a local .larder/ directory that takes precedence over ~/.larder/
for configuration, credentials and the local SQLite database, and writes
a config.toml for the chosen preset.

Presets:
  openrouter    OpenRouter free tier with PostgreSQL storage (default)
  huggingface   Hugging Face inference with PostgreSQL storage
  local         OpenRouter with SQLite storage in .larder/larder.db

Examples:
  larder init
  larder init --preset local
  larder init --preset huggingface --force`

const initShortDesc string = "Initialize a local .larder/ directory"

func NewInitCmd() *cobra.Command {
	var preset string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			return runInit(cmd.OutOrStdout(), filepath.Join(cwd, dirName), preset, force)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "openrouter",
		"Configuration preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config.toml")

	return cmd
}

func runInit(out io.Writer, dir, preset string, force bool) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .larder directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, statErr := os.Stat(cfger.GetTarget())
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", statErr)
	}

	if exists && !force {
		fmt.Fprintf(out, "  %s Already initialized: %s %s\n",
			cliui.WarnStyle.Render("!"),
			dir,
			cliui.DimStyle.Render("(use --force to overwrite config.toml)"),
		)
		return nil
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Initialized %s with the %s preset\n",
		cliui.SuccessMark,
		dir,
		cliui.NameStyle.Render(strings.ToLower(preset)),
	)
	return nil
}
