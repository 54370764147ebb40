package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/scribed/internal/api"
	"github.com/snarg/scribed/internal/backend"
	"github.com/snarg/scribed/internal/config"
	"github.com/snarg/scribed/internal/mailer"
	"github.com/snarg/scribed/internal/payments"
	"github.com/snarg/scribed/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level")
	flag.StringVar(&overrides.TranscribeBaseURL, "transcribe-url", "", "transcription service base url")
	flag.StringVar(&overrides.BackendURL, "backend-url", "", "hosted backend base url")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("scribed starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// External-service clients. Everything is constructed here and injected;
	// nothing lives at package scope.
	db := backend.NewClient(cfg.BackendURL, cfg.BackendKey, log)
	deps := api.Deps{
		Transcriber: transcribe.NewClient(cfg.TranscribeBaseURL, cfg.TranscribeTimeout),
		Sessions:    db,
		Accounts:    db,
		History:     db,
		Payments:    payments.NewClient(cfg.PaymentSecretKey, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL),
		Mailer:      mailer.NewClient(cfg.EmailServiceID, cfg.EmailTemplateID, cfg.EmailPublicKey),
	}

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, deps, version, startTime, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("scribed stopped")
}
