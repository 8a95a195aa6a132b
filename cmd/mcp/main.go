package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/backend"
	"github.com/urmzd/torchd/pkg/db"
	torchmcp "github.com/urmzd/torchd/pkg/mcp"
	"github.com/urmzd/torchd/pkg/torch"
)

func main() {
	// stdout carries the MCP transport
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

	b := backend.Open(ctx, settings)
	defer b.Service.Close()

	session := torch.NewSession(ctx, b.Service, b.Events, torch.Options{
		FallbackMaxStrengthLevel: settings.FallbackMaxLevel,
	})
	session.Start(ctx)
	defer session.Close()

	mcpServer := torchmcp.NewServer(b.Service, session)

	log.Info().Str("backend", b.Name).Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
