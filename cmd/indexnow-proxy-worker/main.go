//go:build js && wasm

package main

import (
	"github.com/dvcrn/indexnow/internal/logger"
	"github.com/dvcrn/indexnow/internal/ownership"
	"github.com/dvcrn/indexnow/internal/server"
	"github.com/syumai/workers"
)

var srv *server.Server

func init() {
	cfg, err := server.ConfigFromEnv()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Invalid configuration")
	}

	provider, err := ownership.NewCloudflareKVProvider()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to create key provider")
	}

	srv = server.NewServer(provider, cfg)

	if err := srv.LoadOwnership(); err != nil {
		logger.Get().Error().Err(err).Msg("Failed to load IndexNow key")
		logger.Get().Warn().Msg("Submissions fail until a key is set via /admin/key")
	}
}

func main() {
	// workers.Serve handles the HTTP server setup
	workers.Serve(srv)
}
