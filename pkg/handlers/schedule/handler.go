package schedule

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/handlers"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/services/dispatch"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	"github.com/de-tools/report-scheduler/pkg/services/resources/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Sender dispatches a schedule out of turn.
type Sender interface {
	SendNow(ctx context.Context, scheduleID string) (dispatch.Job, error)
}

type Handler struct {
	scheduleMgmt schedule.ManagementService
	sender       Sender
}

func NewHandler(scheduleMgmt schedule.ManagementService, sender Sender) *Handler {
	return &Handler{
		scheduleMgmt: scheduleMgmt,
		sender:       sender,
	}
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.scheduleMgmt.ListSchedules(r.Context())
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	response := make([]api.Schedule, 0, len(schedules))
	for _, s := range schedules {
		response = append(response, adapters.MapDomainScheduleToAPI(s))
	}
	handlers.WriteJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	s, err := h.scheduleMgmt.GetSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainScheduleToAPI(s))
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req api.Schedule
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	s, err := h.scheduleMgmt.CreateSchedule(r.Context(), adapters.MapAPIScheduleToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusCreated, adapters.MapDomainScheduleToAPI(s))
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req api.Schedule
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	s, err := h.scheduleMgmt.UpdateSchedule(r.Context(), adapters.MapAPIScheduleToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainScheduleToAPI(s))
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduleMgmt.DeleteSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReportContent answers GET /report-content?schedule-id=.
func (h *Handler) ListReportContent(w http.ResponseWriter, r *http.Request) {
	scheduleID := r.URL.Query().Get("schedule-id")
	if scheduleID == "" {
		handlers.WriteError(w, r, resources.Invalid("schedule-id is required"))
		return
	}

	details, err := h.scheduleMgmt.ListContent(r.Context(), scheduleID)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	response := make([]api.ReportContent, 0, len(details))
	for _, d := range details {
		response = append(response, adapters.MapDomainPanelDetailToAPI(d))
	}
	handlers.WriteJSON(w, r, http.StatusOK, response)
}

func (h *Handler) CreateReportContent(w http.ResponseWriter, r *http.Request) {
	var req api.ReportContent
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	d, err := h.scheduleMgmt.CreateContent(r.Context(), adapters.MapAPIPanelDetailToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusCreated, adapters.MapDomainPanelDetailToAPI(d))
}

func (h *Handler) UpdateReportContent(w http.ResponseWriter, r *http.Request) {
	var req api.ReportContent
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	d, err := h.scheduleMgmt.UpdateContent(r.Context(), adapters.MapAPIPanelDetailToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainPanelDetailToAPI(d))
}

func (h *Handler) DeleteReportContent(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduleMgmt.DeleteContent(r.Context(), chi.URLParam(r, "id")); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendTestEmail answers GET /test-email?schedule-id= by dispatching the schedule now.
func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	scheduleID := r.URL.Query().Get("schedule-id")
	if scheduleID == "" {
		handlers.WriteError(w, r, resources.Invalid("schedule-id is required"))
		return
	}

	job, err := h.sender.SendNow(ctx, scheduleID)
	if errors.Is(err, dispatch.ErrNothingToSend) {
		err = resources.Invalid("%v", err)
	}
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	logger.Info().
		Str("schedule", scheduleID).
		Int("recipients", len(job.Recipients)).
		Msg("test report sent")
	handlers.WriteJSON(w, r, http.StatusOK, api.Message{
		Message: fmt.Sprintf("report %q sent to %d recipients", job.Name, len(job.Recipients)),
	})
}
