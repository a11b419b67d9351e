// Copyright (c) 2025 ariusbronte

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariusbronte/vkbot/internal/config"
	"github.com/ariusbronte/vkbot/internal/rules"
	"github.com/ariusbronte/vkbot/userbot"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vkbot",
		Short:         "Command routing for a VK long poll user bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", config.DefaultConfigPath, "Config file path (missing file means defaults).")
	cmd.PersistentFlags().String("rules", "", "Answer rules file (overrides [rules] path).")

	cmd.AddCommand(newReplayCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadInputs reads the config file and the rules file named by the flags.
func loadInputs(cmd *cobra.Command) (config.Config, *rules.File, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	rulesPath, _ := cmd.Flags().GetString("rules")
	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}
	f, err := rules.Load(rulesPath)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, f, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the library version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vkbot %s\n", userbot.Version)
		},
	}
}
