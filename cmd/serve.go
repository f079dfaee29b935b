package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oankit/cf-ai-observability-agent/internal/config"
	"github.com/oankit/cf-ai-observability-agent/internal/httpapi"
	"github.com/oankit/cf-ai-observability-agent/internal/observability"
)

func newServeCmd() *cobra.Command {
	var listenFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if listenFlag != "" {
				cfg.Server.Listen = listenFlag
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&listenFlag, "listen", "l", "", "listen address (overrides config)")
	return cmd
}

func runServe(cfg *config.Config) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	metrics := observability.NewMetrics(cfg.Server.MetricsNamespace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, metrics, log)
	if err != nil {
		return err
	}
	defer p.close()

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           httpapi.New(p.manager, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Listen))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
