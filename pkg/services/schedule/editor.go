package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/cache"
	"github.com/de-tools/report-scheduler/pkg/services/contentvars"
	"github.com/de-tools/report-scheduler/pkg/services/mutation"
	"github.com/rs/zerolog"
)

var ErrPanelIneligible = errors.New("panel cannot be added to a report")

// ContentClient is the part of the resource API the editor writes through.
type ContentClient interface {
	ListReportContent(ctx context.Context, scheduleID string) ([]api.ReportContent, error)
	CreateReportContent(ctx context.Context, c api.ReportContent) (*api.ReportContent, error)
	UpdateReportContent(ctx context.Context, c api.ReportContent) (*api.ReportContent, error)
	DeleteReportContent(ctx context.Context, id string) error
}

// Editor edits the panel selection of schedules. Reads go through the cache and every
// write is applied optimistically.
type Editor struct {
	client ContentClient
	cache  *cache.Cache
}

func NewEditor(client ContentClient, c *cache.Cache) *Editor {
	return &Editor{
		client: client,
		cache:  c,
	}
}

// DerivePanelDetails keeps the details that reference one of panels, in panel order.
func DerivePanelDetails(panels []domain.Panel, details []domain.PanelDetail) []domain.PanelDetail {
	byRef := make(map[domain.PanelRef]domain.PanelDetail, len(details))
	for _, d := range details {
		byRef[d.Ref()] = d
	}

	out := make([]domain.PanelDetail, 0, len(details))
	for _, p := range panels {
		if d, ok := byRef[p.Ref()]; ok {
			out = append(out, d)
			delete(byRef, p.Ref())
		}
	}
	return out
}

func findDetail(details []domain.PanelDetail, ref domain.PanelRef) (domain.PanelDetail, bool) {
	for _, d := range details {
		if d.Ref() == ref {
			return d, true
		}
	}
	return domain.PanelDetail{}, false
}

func (e *Editor) loader(scheduleID string) func(context.Context) ([]domain.PanelDetail, error) {
	return func(ctx context.Context) ([]domain.PanelDetail, error) {
		contents, err := e.client.ListReportContent(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		details := make([]domain.PanelDetail, 0, len(contents))
		for _, c := range contents {
			details = append(details, adapters.MapAPIPanelDetailToDomain(c))
		}
		return details, nil
	}
}

// PanelDetails returns the persisted selection of the schedule.
func (e *Editor) PanelDetails(ctx context.Context, scheduleID string) ([]domain.PanelDetail, error) {
	return cache.Fetch(ctx, e.cache, cache.ReportContentKey(scheduleID), e.loader(scheduleID))
}

type toggle struct {
	detail domain.PanelDetail
	remove bool
}

func (e *Editor) toggleMutation(scheduleID string) mutation.Optimistic[[]domain.PanelDetail, toggle] {
	return mutation.Optimistic[[]domain.PanelDetail, toggle]{
		Key: cache.ReportContentKey(scheduleID),
		Apply: func(prev []domain.PanelDetail, t toggle) []domain.PanelDetail {
			next := make([]domain.PanelDetail, 0, len(prev)+1)
			for _, d := range prev {
				if d.Ref() != t.detail.Ref() {
					next = append(next, d)
				}
			}
			if !t.remove {
				next = append(next, t.detail)
			}
			return next
		},
		Request: func(ctx context.Context, t toggle) error {
			if t.remove {
				return e.client.DeleteReportContent(ctx, t.detail.ID)
			}
			_, err := e.client.CreateReportContent(ctx, adapters.MapDomainPanelDetailToAPI(t.detail))
			return err
		},
		Reload:  e.loader(scheduleID),
		Related: []cache.Key{cache.ScheduleKey(scheduleID), cache.SchedulesKey()},
	}
}

// TogglePanel adds the panel to the schedule when it is not selected and removes it otherwise.
// It reports whether the panel is selected afterwards. Ineligible panels can only be removed.
func (e *Editor) TogglePanel(ctx context.Context, scheduleID string, panel domain.Panel) (bool, error) {
	details, err := e.PanelDetails(ctx, scheduleID)
	if err != nil {
		return false, err
	}

	existing, selected := findDetail(details, panel.Ref())
	if !selected && !panel.Eligible() {
		return false, fmt.Errorf("%w: %s", ErrPanelIneligible, panel.Error)
	}

	t := toggle{detail: existing, remove: selected}
	if !selected {
		t.detail = domain.PanelDetail{
			ScheduleID:  scheduleID,
			PanelID:     panel.ID,
			DashboardID: panel.DashboardID,
		}
	}

	if err := mutation.Run(ctx, e.cache, e.toggleMutation(scheduleID), t); err != nil {
		return selected, fmt.Errorf("toggle panel %s: %w", panel.Ref(), err)
	}
	return !selected, nil
}

func (e *Editor) updateDetail(ctx context.Context, detail domain.PanelDetail) error {
	m := mutation.Optimistic[[]domain.PanelDetail, domain.PanelDetail]{
		Key: cache.ReportContentKey(detail.ScheduleID),
		Apply: func(prev []domain.PanelDetail, d domain.PanelDetail) []domain.PanelDetail {
			next := make([]domain.PanelDetail, len(prev))
			for i, p := range prev {
				if p.ID == d.ID {
					p = d
				}
				next[i] = p
			}
			return next
		},
		Request: func(ctx context.Context, d domain.PanelDetail) error {
			_, err := e.client.UpdateReportContent(ctx, adapters.MapDomainPanelDetailToAPI(d))
			return err
		},
		Reload:  e.loader(detail.ScheduleID),
		Related: []cache.Key{cache.ScheduleKey(detail.ScheduleID), cache.SchedulesKey()},
	}
	return mutation.Run(ctx, e.cache, m, detail)
}

// SetVariable stores values as the selection of the variable name, keeping the other variables.
func (e *Editor) SetVariable(ctx context.Context, detail domain.PanelDetail, name string, values []string) (domain.PanelDetail, error) {
	encoded, err := contentvars.Update(detail.Variables, name, values)
	if err != nil {
		return detail, err
	}
	updated := detail
	updated.Variables = encoded
	if err := e.updateDetail(ctx, updated); err != nil {
		return detail, fmt.Errorf("set variable %s: %w", name, err)
	}
	return updated, nil
}

func (e *Editor) SetLookback(ctx context.Context, detail domain.PanelDetail, lookback string) (domain.PanelDetail, error) {
	updated := detail
	updated.Lookback = lookback
	if err := e.updateDetail(ctx, updated); err != nil {
		return detail, fmt.Errorf("set lookback: %w", err)
	}
	return updated, nil
}

// DeselectIneligible removes every selected panel that now carries an error and returns the removed details.
func (e *Editor) DeselectIneligible(ctx context.Context, scheduleID string, panels []domain.Panel) ([]domain.PanelDetail, error) {
	logger := zerolog.Ctx(ctx)

	details, err := e.PanelDetails(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	var removed []domain.PanelDetail
	for _, p := range panels {
		if p.Eligible() {
			continue
		}
		d, ok := findDetail(details, p.Ref())
		if !ok {
			continue
		}
		if err := mutation.Run(ctx, e.cache, e.toggleMutation(scheduleID), toggle{detail: d, remove: true}); err != nil {
			return removed, fmt.Errorf("deselect panel %s: %w", p.Ref(), err)
		}
		logger.Info().Str("panel", p.Ref().String()).Str("reason", p.Error).Msg("deselected ineligible panel")
		removed = append(removed, d)
	}
	return removed, nil
}
