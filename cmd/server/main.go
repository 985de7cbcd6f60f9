package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"

	"github.com/ugel-satipo/portal/internal/config"
	"github.com/ugel-satipo/portal/internal/logger"
	"github.com/ugel-satipo/portal/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	logStartup(log, cfg)

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}

// logStartup records the settings an operator needs to check a deployment
func logStartup(log zerolog.Logger, cfg *config.Config) {
	log.Info().
		Str("version", version).
		Str("addr", cfg.HTTP.Address).
		Str("database", cfg.Database.URL).
		Str("upload_dir", cfg.Storage.UploadDir).
		Str("max_upload", fmt.Sprintf("%d MB", cfg.Storage.MaxUploadSize>>20)).
		Strs("cors_origins", cfg.HTTP.CORSOrigins).
		Str("redis", cfg.Redis.Address).
		Dur("token_ttl", cfg.Auth.TokenTTL).
		Msg("Starting UGEL API server")

	if slices.Contains(cfg.HTTP.CORSOrigins, "*") {
		log.Warn().Msg("CORS_ORIGINS allows any origin; restrict it to the portal's address in production")
	}
	if len(cfg.HTTP.CORSOrigins) == 0 {
		log.Warn().Msg("CORS_ORIGINS is empty; browsers will not be able to call the API")
	}
}
