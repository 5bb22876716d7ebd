package server

import (
	"context"

	reportsmiddleware "github.com/de-tools/report-scheduler/pkg/server/middleware"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"
	"github.com/rs/zerolog"
)

// Plugin serves the resource API as the backend of the Grafana app plugin.
type Plugin struct {
	resources backend.CallResourceHandler
	db        Pinger
	logger    zerolog.Logger
}

func NewPlugin(logger zerolog.Logger, deps Dependencies) *Plugin {
	router := NewRouter(logger, deps, reportsmiddleware.PluginSettings)
	return &Plugin{
		resources: httpadapter.New(router),
		db:        deps.DB,
		logger:    logger,
	}
}

func (p *Plugin) CallResource(ctx context.Context, req *backend.CallResourceRequest, sender backend.CallResourceResponseSender) error {
	ctx = backend.WithPluginContext(ctx, req.PluginContext)
	ctx = p.logger.With().Str("plugin_id", req.PluginContext.PluginID).Logger().WithContext(ctx)
	return p.resources.CallResource(ctx, req, sender)
}

// CheckHealth reports whether the schedule database answers.
func (p *Plugin) CheckHealth(ctx context.Context, _ *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	if p.db != nil {
		if err := p.db.PingContext(ctx); err != nil {
			p.logger.Error().Err(err).Msg("health check failed")
			return &backend.CheckHealthResult{
				Status:  backend.HealthStatusError,
				Message: "could not ping the database: " + err.Error(),
			}, nil
		}
	}
	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: "database reachable",
	}, nil
}

func (p *Plugin) ServeOpts() backend.ServeOpts {
	return backend.ServeOpts{
		CallResourceHandler: p,
		CheckHealthHandler:  p,
	}
}
