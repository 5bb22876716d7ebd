package main

import (
	"os"

	"github.com/de-tools/report-scheduler/pkg/runtime/app"
	"github.com/de-tools/report-scheduler/pkg/server"
	"github.com/de-tools/report-scheduler/pkg/services/config"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/rs/zerolog"
)

const pluginID = "msupplyfoundation-excelreportemailscheduler-app"

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("plugin", pluginID).Logger()

	cfg, err := config.LoadServer(os.Getenv("REPORTS_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.Level(cfg.Level())

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start report scheduler")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	a.Poller.Start()

	plugin := server.NewPlugin(logger, a.Dependencies)
	if err := backend.Manage(pluginID, plugin.ServeOpts()); err != nil {
		logger.Error().Err(err).Msg("plugin exited")
		os.Exit(1)
	}
}
