package reportgroup

import (
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/handlers"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	"github.com/de-tools/report-scheduler/pkg/services/resources/reportgroup"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	groupMgmt reportgroup.ManagementService
}

func NewHandler(groupMgmt reportgroup.ManagementService) *Handler {
	return &Handler{
		groupMgmt: groupMgmt,
	}
}

func (h *Handler) ListReportGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupMgmt.ListReportGroups(r.Context())
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	response := make([]api.ReportGroup, 0, len(groups))
	for _, g := range groups {
		response = append(response, adapters.MapDomainReportGroupToAPI(g))
	}
	handlers.WriteJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetReportGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groupMgmt.GetReportGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainReportGroupToAPI(group))
}

func (h *Handler) CreateReportGroup(w http.ResponseWriter, r *http.Request) {
	var req api.ReportGroup
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	group, err := h.groupMgmt.CreateReportGroup(r.Context(), adapters.MapAPIReportGroupToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusCreated, adapters.MapDomainReportGroupToAPI(group))
}

func (h *Handler) UpdateReportGroup(w http.ResponseWriter, r *http.Request) {
	var req api.ReportGroup
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	group, err := h.groupMgmt.UpdateReportGroup(r.Context(), adapters.MapAPIReportGroupToDomain(req))
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, adapters.MapDomainReportGroupToAPI(group))
}

func (h *Handler) DeleteReportGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groupMgmt.DeleteReportGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMemberships answers GET /report-group-membership?group-id=.
func (h *Handler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group-id")
	if groupID == "" {
		handlers.WriteError(w, r, resources.Invalid("group-id is required"))
		return
	}

	members, err := h.groupMgmt.ListMembers(r.Context(), groupID)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	response := make([]api.ReportGroupMembership, 0, len(members))
	for _, m := range members {
		response = append(response, adapters.MapDomainMembershipToAPI(m))
	}
	handlers.WriteJSON(w, r, http.StatusOK, response)
}

func (h *Handler) CreateMemberships(w http.ResponseWriter, r *http.Request) {
	var req []api.ReportGroupMembership
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	members := make([]domain.ReportGroupMember, 0, len(req))
	for _, m := range req {
		members = append(members, adapters.MapAPIMembershipToDomain(m))
	}

	created, err := h.groupMgmt.AddMembers(r.Context(), members)
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	response := make([]api.ReportGroupMembership, 0, len(created))
	for _, m := range created {
		response = append(response, adapters.MapDomainMembershipToAPI(m))
	}
	handlers.WriteJSON(w, r, http.StatusCreated, response)
}

func (h *Handler) DeleteMembership(w http.ResponseWriter, r *http.Request) {
	if err := h.groupMgmt.RemoveMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
