package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/oseayemenre/pagesy-reader/internal/api"
	"github.com/oseayemenre/pagesy-reader/internal/config"
	"github.com/oseayemenre/pagesy-reader/internal/events"
	"github.com/oseayemenre/pagesy-reader/internal/session"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

func newObjectStore(ctx context.Context, cfg *config.Config) (store.ObjectStore, error) {
	switch cfg.Storage_driver {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3_region))
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config, %v", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = true
		})

		return store.NewS3Store(client, cfg.S3_bucket, cfg.S3_region, cfg.S3_public_url), nil
	case "cloudinary":
		cld, err := cloudinary.NewFromParams(cfg.Cloudinary_cloud, cfg.Cloudinary_key, cfg.Cloudinary_secret)
		if err != nil {
			return nil, fmt.Errorf("error configuring cloudinary: %v", err)
		}

		return store.NewCloudinaryStore(cld), nil
	default:
		return nil, fmt.Errorf("storage driver can only be s3 or cloudinary")
	}
}

func HTTPCommand(ctx context.Context) *cobra.Command {
	var addr int
	var env string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "run pagesy http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			logger, err := newLogger(env)
			if err != nil {
				return err
			}

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			objectStore, err := newObjectStore(ctx, cfg)
			if err != nil {
				return err
			}

			db, err := store.NewPostgresStore(cfg.Db_conn)
			if err != nil {
				return err
			}
			defer db.Close()

			session.UseGoogle(cfg)

			hub := events.NewHub()
			go hub.Run(ctx)

			publisher := events.Multi{hub}

			if cfg.Amqp_conn != "" {
				conn, err := amqp.Dial(cfg.Amqp_conn)
				if err != nil {
					return fmt.Errorf("error connecting to rabbitmq, %v", err)
				}
				defer conn.Close()

				queue, err := events.NewAMQPPublisher(conn, events.QueueNovelCreated)
				if err != nil {
					return err
				}
				defer queue.Close()

				publisher = append(publisher, queue)
				logger.Info("queue connected", "queue", events.QueueNovelCreated)
			}

			router := chi.NewRouter()

			server := api.New(
				router,
				logger,
				objectStore,
				db,
				session.NewJWTProvider(cfg.Jwt_secret, cfg.Store_secure),
				publisher,
				hub,
				cfg,
			)
			server.RegisterRoutes()

			httpServer := &http.Server{
				Addr:        fmt.Sprintf(":%d", addr),
				Handler:     router,
				IdleTimeout: 15 * time.Minute,
			}
			errCh := make(chan error, 1)

			logger.Info("server startup", "status", fmt.Sprintf("server starting on port: %d", addr))
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err

			case <-ctx.Done():
				logger.Info("server shutdown", "status", "kill signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()

				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("error shutting down server: %v", err)
				}

				logger.Info("server shutdown", "status", "shutdown complete...")
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&addr, "addr", "a", 8080, "server address")
	cmd.Flags().StringVarP(&env, "env", "e", "dev", "current working environment")

	return cmd
}
