// Copyright (c) 2025 ariusbronte

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ariusbronte/vkbot/internal/transport"
	"github.com/ariusbronte/vkbot/userbot"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and the answer rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, file, err := loadInputs(cmd)
			if err != nil {
				return err
			}

			cc := cfg.ClientConfig(io.Discard)
			cc.LogLevel = userbot.LogDisable
			b, err := userbot.New(transport.NewMemory(), cc)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := file.Apply(b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rules\n", len(file.Rules))
			return nil
		},
	}
}
