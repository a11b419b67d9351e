// Copyright (c) 2025 ariusbronte

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ariusbronte/vkbot/internal/transport"
	"github.com/ariusbronte/vkbot/userbot"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Run the answer rules against recorded long poll events",
		Long: "Feeds every line of a JSON lines event file through the router and " +
			"prints each outgoing message as \"<peer>\\t<text>\". Stops when the file is used up.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, file, err := loadInputs(cmd)
			if err != nil {
				return err
			}

			rep, err := transport.OpenReplay(args[0], cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}

			b, err := userbot.New(
				transport.NewRateLimited(rep, cfg.Send.Rate, cfg.Send.Burst),
				cfg.ClientConfig(cmd.ErrOrStderr()),
			)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := file.Apply(b); err != nil {
				return err
			}
			_ = b.OnBotException(func(_ context.Context, m *userbot.NewMessage, err error) {
				b.Log.WithError(err).Warn("[BotException] message %d in peer %d", m.Message.ID, m.Message.PeerID)
			})
			_ = b.OnException(func(_ context.Context, err error) {
				b.Log.WithError(err).Warn("[Exception] long poll")
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			if creds := cfg.Credentials(); creds.AccessToken != "" || creds.Login != "" {
				if err := b.Authorize(ctx, creds); err != nil {
					return err
				}
			}

			go func() {
				select {
				case <-rep.Done():
					cancel()
				case <-ctx.Done():
				}
			}()

			if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
