package main

import (
	"github.com/dvcrn/indexnow/internal/env"
	"github.com/dvcrn/indexnow/internal/logger"
	"github.com/dvcrn/indexnow/internal/ownership"
	"github.com/dvcrn/indexnow/internal/server"
)

func main() {
	port := env.GetOrDefault("PORT", "9877")

	cfg, err := server.ConfigFromEnv()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Invalid configuration")
	}

	provider, err := ownership.NewFileProvider()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to create key provider")
	}

	srv := server.NewServer(provider, cfg)
	if err := srv.Start(":" + port); err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to start server")
	}
}
