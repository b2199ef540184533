// Package lardercmder is the root larder command.
package lardercmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/larder/cmd/larder/auth"
	chatcmder "github.com/papercomputeco/larder/cmd/larder/chat"
	configcmder "github.com/papercomputeco/larder/cmd/larder/config"
	initcmder "github.com/papercomputeco/larder/cmd/larder/init"
	seedcmder "github.com/papercomputeco/larder/cmd/larder/seed"
	servecmder "github.com/papercomputeco/larder/cmd/larder/serve"
	versioncmder "github.com/papercomputeco/larder/cmd/version"
)

const larderLongDesc string = `Larder is a food assistant that knows what is in your kitchen.

Run the server and talk to it using:
  larder serve       Run the API server
  larder chat        Chat with a running server
  larder seed        Add a starter pantry to a running server

Configure it using:
  larder init        Create a local .larder/ directory
  larder auth        Store provider API keys
  larder config      Get and set configuration values`

const larderShortDesc string = "Larder - Food Assistant"

func NewLarderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "larder",
		Short:         larderShortDesc,
		Long:          larderLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .larder/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
