package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytq/internal/app"
	"ytq/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "config <key> <value>",
		Aliases: []string{"c"},
		Short:   "Change a setting",
		Long: fmt.Sprintf(`Change a setting in the config file.

Keys: %s
  mode             queue (oldest first) or stack (newest first)
  offline          true disables fetch and browser opening
  youtube_api_key  YouTube Data API v3 key (alias: api_key)`, strings.Join(config.Keys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ctx.execute(cmd, app.SetConfig{Key: args[0], Value: args[1]})
			if err != nil {
				return err
			}
			res := out.(app.ConfigResult)
			fmt.Fprintf(cmd.OutOrStdout(), "Config updated: %s = %s\n", res.Key, res.Value)
			return nil
		},
	}
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		Aliases: []string{"i"},
		Short:   "Show data paths and store sizes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := ctx.execute(cmd, app.Info{})
			if err != nil {
				return err
			}
			renderInfo(cmd.OutOrStdout(), out.(app.InfoResult), shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
}
