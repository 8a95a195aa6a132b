package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/api"
	"github.com/urmzd/torchd/pkg/backend"
	"github.com/urmzd/torchd/pkg/db"
	"github.com/urmzd/torchd/pkg/device/schema"
	"github.com/urmzd/torchd/pkg/torch"

	_ "github.com/urmzd/torchd/docs"
)

//go:generate swag init -g cmd/api/main.go -d ../.. -o ../../docs

// @title           torchd API
// @version         1.0
// @description     REST API for switching the device torch and adjusting its brightness

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/torchd/torchd.db)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database")
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply environment overrides")
	}

	settings := cfg.TorchSettings()
	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("backend", settings.Backend).
		Str("api_address", cfg.APIAddress()).
		Msg("Configuration loaded")

	b := backend.Open(ctx, settings)
	defer b.Service.Close()

	session := torch.NewSession(ctx, b.Service, b.Events, torch.Options{
		FallbackMaxStrengthLevel: settings.FallbackMaxLevel,
	})
	session.Start(ctx)
	defer session.Close()

	router := api.NewRouter(b.Service, session, schema.NewValidator())

	addr := cfg.APIAddress()
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("Starting API server")
		errCh <- router.Run(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
	}
}
