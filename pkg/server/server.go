package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/report-scheduler/pkg/handlers"
	reportgrouphandler "github.com/de-tools/report-scheduler/pkg/handlers/reportgroup"
	schedulehandler "github.com/de-tools/report-scheduler/pkg/handlers/schedule"
	settingshandler "github.com/de-tools/report-scheduler/pkg/handlers/settings"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	reportsmiddleware "github.com/de-tools/report-scheduler/pkg/server/middleware"
	"github.com/de-tools/report-scheduler/pkg/services/resources/reportgroup"
	"github.com/de-tools/report-scheduler/pkg/services/resources/schedule"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	ReportGroups reportgroup.ManagementService
	Schedules    schedule.ManagementService
	Settings     settings.ManagementService
	Sender       schedulehandler.Sender
	DB           Pinger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// NewRouter mounts the resource API at the root of the returned router.
func NewRouter(logger zerolog.Logger, deps Dependencies, extra ...func(http.Handler) http.Handler) *chi.Mux {
	groupHandler := reportgrouphandler.NewHandler(deps.ReportGroups)
	scheduleHandler := schedulehandler.NewHandler(deps.Schedules, deps.Sender)
	settingsHandler := settingshandler.NewHandler(deps.Settings)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(reportsmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)
	for _, mw := range extra {
		router.Use(mw)
	}

	router.Get("/health", health(deps.DB))

	router.Route("/report-group", func(r chi.Router) {
		r.Get("/", groupHandler.ListReportGroups)
		r.Post("/", groupHandler.CreateReportGroup)
		r.Get("/{id}", groupHandler.GetReportGroup)
		r.Put("/{id}", groupHandler.UpdateReportGroup)
		r.Delete("/{id}", groupHandler.DeleteReportGroup)
	})
	router.Route("/report-group-membership", func(r chi.Router) {
		r.Get("/", groupHandler.ListMemberships)
		r.Post("/", groupHandler.CreateMemberships)
		r.Delete("/{id}", groupHandler.DeleteMembership)
	})
	router.Route("/schedule", func(r chi.Router) {
		r.Get("/", scheduleHandler.ListSchedules)
		r.Post("/", scheduleHandler.CreateSchedule)
		r.Get("/{id}", scheduleHandler.GetSchedule)
		r.Put("/{id}", scheduleHandler.UpdateSchedule)
		r.Delete("/{id}", scheduleHandler.DeleteSchedule)
	})
	router.Route("/report-content", func(r chi.Router) {
		r.Get("/", scheduleHandler.ListReportContent)
		r.Post("/", scheduleHandler.CreateReportContent)
		r.Put("/{id}", scheduleHandler.UpdateReportContent)
		r.Delete("/{id}", scheduleHandler.DeleteReportContent)
	})
	router.Get("/settings", settingsHandler.GetSettings)
	router.Post("/settings", settingsHandler.SaveSettings)
	router.Get("/test-email", scheduleHandler.SendTestEmail)

	return router
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				handlers.WriteJSON(w, r, http.StatusServiceUnavailable, api.Error{
					Status:  http.StatusServiceUnavailable,
					Message: "database unavailable",
					Error:   err.Error(),
				})
				return
			}
		}
		handlers.WriteJSON(w, r, http.StatusOK, api.Message{Message: "ok"})
	}
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := NewRouter(logger, config.Dependencies)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
