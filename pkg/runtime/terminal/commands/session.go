package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/cache"
	"github.com/de-tools/report-scheduler/pkg/services/panels"
	"github.com/de-tools/report-scheduler/pkg/services/schedule"
	"github.com/de-tools/report-scheduler/pkg/store/client"
)

// Session holds the clients for one profile.
type Session struct {
	Profile   domain.ConfigProfile
	Grafana   *client.Grafana
	Resources *client.Resources
	Cache     *cache.Cache
	Editor    *schedule.Editor
	Groups    *schedule.GroupEditor
	Options   panels.Options
}

type SessionFunc func(ctx context.Context) (*Session, error)

func NewSession(profile domain.ConfigProfile, httpClient *http.Client) (*Session, error) {
	grafana, err := client.NewGrafana(profile, httpClient)
	if err != nil {
		return nil, err
	}
	resources, err := client.NewPluginResources(profile, httpClient)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cache.DefaultSize)
	if err != nil {
		return nil, err
	}
	return &Session{
		Profile:   profile,
		Grafana:   grafana,
		Resources: resources,
		Cache:     c,
		Editor:    schedule.NewEditor(resources, c),
		Groups:    schedule.NewGroupEditor(resources, c),
	}, nil
}

// DatasourceID prefers the profile's datasource over the one saved in the plugin settings.
func (s *Session) DatasourceID(ctx context.Context) (uint, error) {
	if s.Profile.DatasourceID != 0 {
		return s.Profile.DatasourceID, nil
	}
	settings, err := s.Grafana.PluginSettings(ctx)
	if err != nil {
		return 0, err
	}
	if id := settings.DatasourceID(); id != 0 {
		return id, nil
	}
	return 0, client.ErrDatasourceNotConfigured
}

func (s *Session) Panels(ctx context.Context) ([]domain.Panel, error) {
	dsID, err := s.DatasourceID(ctx)
	if err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, s.Cache, cache.PanelsKey(), func(ctx context.Context) ([]domain.Panel, error) {
		return s.Grafana.Panels(ctx, dsID, s.Options)
	})
}

func (s *Session) FindPanel(ctx context.Context, ref domain.PanelRef) (domain.Panel, error) {
	list, err := s.Panels(ctx)
	if err != nil {
		return domain.Panel{}, err
	}
	for _, p := range list {
		if p.Ref() == ref {
			return p, nil
		}
	}
	return domain.Panel{}, fmt.Errorf("panel %s not found", ref)
}

func (s *Session) FindDetail(ctx context.Context, scheduleID string, ref domain.PanelRef) (domain.PanelDetail, error) {
	details, err := s.Editor.PanelDetails(ctx, scheduleID)
	if err != nil {
		return domain.PanelDetail{}, err
	}
	for _, d := range details {
		if d.Ref() == ref {
			return d, nil
		}
	}
	return domain.PanelDetail{}, fmt.Errorf("panel %s is not part of schedule %s", ref, scheduleID)
}

func (s *Session) Schedule(ctx context.Context, id string) (domain.Schedule, error) {
	sc, err := s.Resources.GetSchedule(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	return adapters.MapAPIScheduleToDomain(*sc), nil
}

// ScheduleView loads the schedule with the panels it would report on. Selected panels that
// became ineligible are deselected first; details without a known panel are left out.
func (s *Session) ScheduleView(ctx context.Context, id string) (domain.Schedule, error) {
	sc, err := s.Schedule(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	list, err := s.Panels(ctx)
	if err != nil {
		return domain.Schedule{}, err
	}
	if _, err := s.Editor.DeselectIneligible(ctx, sc.ID, list); err != nil {
		return domain.Schedule{}, err
	}
	details, err := s.Editor.PanelDetails(ctx, sc.ID)
	if err != nil {
		return domain.Schedule{}, err
	}
	sc.PanelDetails = schedule.DerivePanelDetails(list, details)
	return sc, nil
}
