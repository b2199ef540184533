// Package configcmder provides the config command for managing persistent
// larder configuration stored in the .larder/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/larder/pkg/cliui"
	"github.com/papercomputeco/larder/pkg/config"
)

const configLongDesc string = `Manage persistent larder configuration.

Configuration is stored as config.toml in the .larder/ directory and provides
default values for command flags. CLI flags and LARDER_ environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen,
  storage.driver, storage.postgres_url, storage.sqlite_path,
  provider.name, provider.model, provider.endpoint,
  client.api_target,
  eventstream.brokers, eventstream.topic,
  log.json, log.file,
  telemetry.enabled, telemetry.metrics_file

The provider.* keys address the first entry of the [[providers]] list,
which is the provider every chat request goes to.

Use subcommands to get, set, or list configuration values:
  larder config set <key> <value>    Set a configuration value
  larder config get <key>            Get a configuration value
  larder config list                 List all configuration values

Examples:
  larder config set storage.driver sqlite
  larder config set provider.model meta-llama/llama-3-8b-instruct:free
  larder config get server.listen
  larder config list`

const configShortDesc string = "Manage persistent larder configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func printTarget(out io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
