/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/dutyroster/apiserver/config"
	"github.com/dutyroster/apiserver/internal/mq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// eventsCmd groups commands that work with roster events.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect roster events on the message broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to the event channel and log every event",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)
		defer func() { _ = log.Sync() }()

		if cfg.MQ.Backend == "" {
			return errors.New("MQ_BACKEND is not configured")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Connect(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer broker.Close()

		log.Info("tailing events", zap.String("backend", cfg.MQ.Backend), zap.String("channel", cfg.MQ.Channel))
		err = broker.Subscribe(ctx, cfg.MQ.Channel, func(_ context.Context, msg mq.Message) error {
			event, err := mq.DecodeEvent(msg)
			if err != nil {
				log.Warn("dropping malformed event", zap.String("message_id", msg.ID), zap.Error(err))
				return nil
			}
			log.Info("event",
				zap.String("id", event.ID),
				zap.String("type", event.Type),
				zap.Int("actor_id", event.ActorID),
				zap.Time("occurred_at", event.OccurredAt),
				zap.ByteString("payload", event.Payload),
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
