package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/oseayemenre/pagesy-reader/internal/config"
	"github.com/oseayemenre/pagesy-reader/internal/events"
	"github.com/oseayemenre/pagesy-reader/internal/notifications"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

// WorkerCommand fans novel.created events out to the author's followers.
func WorkerCommand(ctx context.Context) *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "run the notification worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger, err := newLogger(env)
			if err != nil {
				return err
			}

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			if cfg.Amqp_conn == "" {
				return fmt.Errorf("AMQP_CONN is required to run the worker")
			}

			logger.Info("connecting to db...")
			db, err := store.NewPostgresStore(cfg.Db_conn)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("db connected")

			logger.Info("connecting to queue...")
			conn, err := amqp.Dial(cfg.Amqp_conn)
			if err != nil {
				return fmt.Errorf("error connecting to rabbitmq, %v", err)
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("error opening channel, %v", err)
			}
			defer ch.Close()

			if err := events.DeclareQueue(ch, events.QueueNovelCreated); err != nil {
				return err
			}
			logger.Info("queue connected", "queue", events.QueueNovelCreated)

			notifier := notifications.NewNotifier(db)

			return events.Consume(ctx, ch, events.QueueNovelCreated, logger, notifier.Handle)
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "dev", "current working environment")

	return cmd
}
