package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/flags"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "List the feature flags the flows read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := flags.New(cfg.Flags)
		for _, name := range flags.Known() {
			state := "off"
			if reg.Enabled(name) {
				state = "on"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, state)
		}
		return nil
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set <flag> <true|false>",
	Short: "Turn a feature flag on or off in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !slices.Contains(flags.Known(), name) {
			return fmt.Errorf("unknown flag %q (known: %v)", name, flags.Known())
		}
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("flag value: %w", err)
		}
		if cfgPath == "" {
			return fmt.Errorf("no config file to update")
		}
		if err := config.SetFlag(cfgPath, name, enabled); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %t in %s\n", name, enabled, cfgPath)
		return nil
	},
}

func init() {
	flagsCmd.AddCommand(flagsSetCmd)
	rootCmd.AddCommand(flagsCmd)
}
