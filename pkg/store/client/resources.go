package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
)

// Resources calls the scheduler's resource API. Against Grafana it is mounted under
// /api/plugins/<id>/resources; the standalone server serves it at its root.
type Resources struct {
	req *Requester
}

// NewPluginResources targets the resource API of the plugin installed in Grafana.
func NewPluginResources(profile domain.ConfigProfile, httpClient *http.Client) (*Resources, error) {
	if profile.PluginID == "" {
		return nil, fmt.Errorf("plugin id is empty")
	}
	return NewResources(strings.TrimSuffix(profile.URL, "/")+"/api/plugins/"+profile.PluginID+"/resources", profile, httpClient)
}

func NewResources(baseURL string, profile domain.ConfigProfile, httpClient *http.Client) (*Resources, error) {
	req, err := NewRequester(baseURL, profile, httpClient)
	if err != nil {
		return nil, fmt.Errorf("resource client: %w", err)
	}
	return &Resources{req: req}, nil
}

func (r *Resources) call(ctx context.Context, method, path string, in, out any) error {
	return r.req.DoJSON(ctx, method, path, in, out)
}

func withQuery(path, key, value string) string {
	return path + "?" + url.Values{key: []string{value}}.Encode()
}

func (r *Resources) ListReportGroups(ctx context.Context) ([]api.ReportGroup, error) {
	var out []api.ReportGroup
	return out, r.call(ctx, http.MethodGet, "/report-group", nil, &out)
}

func (r *Resources) GetReportGroup(ctx context.Context, id string) (*api.ReportGroup, error) {
	var out api.ReportGroup
	if err := r.call(ctx, http.MethodGet, "/report-group/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) CreateReportGroup(ctx context.Context, group api.ReportGroup) (*api.ReportGroup, error) {
	var out api.ReportGroup
	if err := r.call(ctx, http.MethodPost, "/report-group", group, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) UpdateReportGroup(ctx context.Context, group api.ReportGroup) (*api.ReportGroup, error) {
	var out api.ReportGroup
	if err := r.call(ctx, http.MethodPut, "/report-group/"+url.PathEscape(group.ID), group, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) DeleteReportGroup(ctx context.Context, id string) error {
	return r.call(ctx, http.MethodDelete, "/report-group/"+url.PathEscape(id), nil, nil)
}

func (r *Resources) ListMemberships(ctx context.Context, groupID string) ([]api.ReportGroupMembership, error) {
	var out []api.ReportGroupMembership
	return out, r.call(ctx, http.MethodGet, withQuery("/report-group-membership", "group-id", groupID), nil, &out)
}

func (r *Resources) CreateMemberships(ctx context.Context, members []api.ReportGroupMembership) ([]api.ReportGroupMembership, error) {
	var out []api.ReportGroupMembership
	return out, r.call(ctx, http.MethodPost, "/report-group-membership", members, &out)
}

func (r *Resources) DeleteMembership(ctx context.Context, id string) error {
	return r.call(ctx, http.MethodDelete, "/report-group-membership/"+url.PathEscape(id), nil, nil)
}

func (r *Resources) ListSchedules(ctx context.Context) ([]api.Schedule, error) {
	var out []api.Schedule
	return out, r.call(ctx, http.MethodGet, "/schedule", nil, &out)
}

func (r *Resources) GetSchedule(ctx context.Context, id string) (*api.Schedule, error) {
	var out api.Schedule
	if err := r.call(ctx, http.MethodGet, "/schedule/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) CreateSchedule(ctx context.Context, s api.Schedule) (*api.Schedule, error) {
	var out api.Schedule
	if err := r.call(ctx, http.MethodPost, "/schedule", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) UpdateSchedule(ctx context.Context, s api.Schedule) (*api.Schedule, error) {
	var out api.Schedule
	if err := r.call(ctx, http.MethodPut, "/schedule/"+url.PathEscape(s.ID), s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) DeleteSchedule(ctx context.Context, id string) error {
	return r.call(ctx, http.MethodDelete, "/schedule/"+url.PathEscape(id), nil, nil)
}

func (r *Resources) ListReportContent(ctx context.Context, scheduleID string) ([]api.ReportContent, error) {
	var out []api.ReportContent
	return out, r.call(ctx, http.MethodGet, withQuery("/report-content", "schedule-id", scheduleID), nil, &out)
}

func (r *Resources) CreateReportContent(ctx context.Context, c api.ReportContent) (*api.ReportContent, error) {
	var out api.ReportContent
	if err := r.call(ctx, http.MethodPost, "/report-content", c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) UpdateReportContent(ctx context.Context, c api.ReportContent) (*api.ReportContent, error) {
	var out api.ReportContent
	if err := r.call(ctx, http.MethodPut, "/report-content/"+url.PathEscape(c.ID), c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) DeleteReportContent(ctx context.Context, id string) error {
	return r.call(ctx, http.MethodDelete, "/report-content/"+url.PathEscape(id), nil, nil)
}

func (r *Resources) GetSettings(ctx context.Context) (*api.Settings, error) {
	var out api.Settings
	if err := r.call(ctx, http.MethodGet, "/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resources) UpdateSettings(ctx context.Context, s api.Settings) (*api.Settings, error) {
	var out api.Settings
	if err := r.call(ctx, http.MethodPost, "/settings", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendTestEmail asks the server to dispatch the schedule's report now.
func (r *Resources) SendTestEmail(ctx context.Context, scheduleID string) (*api.Message, error) {
	var out api.Message
	if err := r.call(ctx, http.MethodGet, withQuery("/test-email", "schedule-id", scheduleID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
