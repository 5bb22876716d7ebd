// Package app wires the stores, services and report poller shared by the web server and the Grafana plugin.
package app

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/de-tools/report-scheduler/pkg/server"
	"github.com/de-tools/report-scheduler/pkg/services/config"
	"github.com/de-tools/report-scheduler/pkg/services/dispatch"
	"github.com/de-tools/report-scheduler/pkg/services/panels"
	"github.com/de-tools/report-scheduler/pkg/services/resources/reportgroup"
	"github.com/de-tools/report-scheduler/pkg/services/resources/schedule"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	contentstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/content"
	groupstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/reportgroup"
	schedulestore "github.com/de-tools/report-scheduler/pkg/store/duckdb/schedule"
	settingsstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/settings"
	"github.com/rs/zerolog"
)

type App struct {
	DB           *sql.DB
	Dependencies server.Dependencies
	Poller       *dispatch.Poller
}

// New opens the database at cfg.DBPath and builds every service on top of it.
func New(cfg config.Server, logger zerolog.Logger) (*App, error) {
	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: cfg.DBPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	a, err := build(db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func build(db *sql.DB, cfg config.Server, logger zerolog.Logger) (*App, error) {
	scheduleStore, err := schedulestore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule store: %w", err)
	}
	contentStore, err := contentstore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create report content store: %w", err)
	}
	groupStore, err := groupstore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create report group store: %w", err)
	}
	settingsStore, err := settingsstore.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings store: %w", err)
	}

	deps := server.Dependencies{
		ReportGroups: reportgroup.NewManagementService(db, groupStore),
		Schedules: schedule.NewManagementService(db, schedule.Stores{
			Schedules: scheduleStore,
			Contents:  contentStore,
			Groups:    groupStore,
		}, time.Now),
		Settings: settings.NewManagementService(settingsStore, cfg.Defaults()),
		DB:       db,
	}

	var dispatcher dispatch.Dispatcher = dispatch.LogDispatcher{}
	if cfg.DispatcherURL != "" {
		dispatcher, err = dispatch.NewHTTPDispatcher(cfg.DispatcherURL, &http.Client{Timeout: time.Minute})
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn().Msg("no dispatcher_url configured, due reports are only logged")
	}

	sender, err := dispatch.NewService(dispatch.Dependencies{
		Schedules:    deps.Schedules,
		Groups:       deps.ReportGroups,
		Settings:     deps.Settings,
		Directory:    dispatch.GrafanaDirectory(cfg.Profile(), &http.Client{Timeout: time.Minute}),
		PanelOptions: panels.Options{StrictVariableMatch: cfg.StrictVariableMatch},
		Dispatcher:   dispatcher,
	})
	if err != nil {
		return nil, err
	}
	deps.Sender = sender

	poller, err := dispatch.NewPoller(sender, cfg.PollInterval, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		DB:           db,
		Dependencies: deps,
		Poller:       poller,
	}, nil
}

func (a *App) Close() error {
	a.Poller.Stop()
	return a.DB.Close()
}
