package settings

import (
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/handlers"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
)

type Handler struct {
	settingsMgmt settings.ManagementService
}

func NewHandler(settingsMgmt settings.ManagementService) *Handler {
	return &Handler{
		settingsMgmt: settingsMgmt,
	}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settingsMgmt.GetSettings(r.Context())
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainSettingsToAPI(st))
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req api.Settings
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	st, err := h.settingsMgmt.SaveSettings(r.Context(), adapters.MapAPISettingsToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainSettingsToAPI(st))
}
