package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oseayemenre/pagesy-reader/internal/logger"
)

const envFile = ".env"

func Run() error {
	ctx := context.Background()

	cmd := &cobra.Command{
		Use:   "pagesy",
		Short: "novel publishing backend",
	}

	cmd.AddCommand(HTTPCommand(ctx))
	cmd.AddCommand(MigrateCommand(ctx))
	cmd.AddCommand(WorkerCommand(ctx))

	if err := cmd.Execute(); err != nil {
		return err
	}

	return nil
}

func newLogger(env string) (*logger.SlogLogger, error) {
	var handler slog.Handler

	switch env {
	case "dev":
		handler = slog.NewTextHandler(os.Stderr, nil)
	case "prod":
		handler = slog.NewJSONHandler(os.Stderr, nil)
	default:
		return nil, fmt.Errorf("environment can only be dev or prod")
	}

	baseLogger := slog.New(handler).With(
		slog.String("app", "pagesy"),
		slog.String("runtime", runtime.Version()),
		slog.String("os", runtime.GOOS),
		slog.String("architecture", runtime.GOARCH),
		slog.String("version", "1.0"),
	)

	return logger.NewSlogLogger(baseLogger), nil
}
