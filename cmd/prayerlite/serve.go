package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/AlexKimmel/prayerlite/internal/api"
	"github.com/AlexKimmel/prayerlite/internal/auth"
	"github.com/AlexKimmel/prayerlite/internal/config"
	"github.com/AlexKimmel/prayerlite/internal/llm"
	"github.com/AlexKimmel/prayerlite/internal/obs"
	ratemem "github.com/AlexKimmel/prayerlite/internal/ratelimit/memory"
	"github.com/AlexKimmel/prayerlite/internal/server"
	"github.com/AlexKimmel/prayerlite/internal/session"
	"github.com/AlexKimmel/prayerlite/internal/store"
	tokenmem "github.com/AlexKimmel/prayerlite/internal/tokenlimit/memory"
	"github.com/AlexKimmel/prayerlite/internal/window"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "./config.yaml", "path to the YAML config file")
	return cmd
}

func serve(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)
	if cfg.LLM.APIKey == "" && !cfg.LLM.AllowClientKey {
		logger.Warn().Str("env", cfg.LLM.APIKeyEnv).Msg("no provider key configured; /api/generate will answer 401")
	}

	db, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)

	sweep := window.WithSweepProbability(*cfg.Limits.SweepProbability)
	rateLimiter := ratemem.New(cfg.Limits.Rate.Policy(), sweep)
	defer rateLimiter.Close()
	tokenLimiter := tokenmem.New(cfg.Limits.Tokens.Budget(), sweep)
	defer tokenLimiter.Close()

	gen := llm.New(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxOutputTokens,
		Timeout:     cfg.LLM.Timeout(),
		MaxRPS:      cfg.LLM.MaxRPS,
	}, llm.NewHTTPClient(llm.NewHTTPTransport(), cfg.LLM.Timeout()))

	srv := server.New(server.Deps{
		Config:      cfg,
		Logger:      logger,
		Registry:    reg,
		Metrics:     metrics,
		RateLimiter: rateLimiter,
		Keys:        auth.NewResolver(cfg.LLM.ClientKeyHeader, cfg.LLM.APIKey, cfg.LLM.AllowClientKey),
		API: api.New(api.Options{
			Tokens:       tokenLimiter,
			Generator:    gen,
			Store:        db,
			Sessions:     session.NewManager(cfg.Session.CookieName, cfg.Session.MaxAge(), cfg.Session.Secure),
			Metrics:      metrics,
			OutputTokens: cfg.LLM.MaxOutputTokens,
		}),
		Health:  db,
		Version: version,
	})

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("model", cfg.LLM.Model).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	logger.Info().Msg("bye")
	return nil
}
