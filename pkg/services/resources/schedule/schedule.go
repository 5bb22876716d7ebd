package schedule

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/de-tools/report-scheduler/pkg/adapters"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/models/store"
	"github.com/de-tools/report-scheduler/pkg/services/contentvars"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	scheduling "github.com/de-tools/report-scheduler/pkg/services/schedule"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	contentstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/content"
	groupstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/reportgroup"
	schedulestore "github.com/de-tools/report-scheduler/pkg/store/duckdb/schedule"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ManagementService interface {
	ListSchedules(ctx context.Context) ([]domain.Schedule, error)
	GetSchedule(ctx context.Context, id string) (domain.Schedule, error)
	CreateSchedule(ctx context.Context, s domain.Schedule) (domain.Schedule, error)
	// UpdateSchedule replaces the schedule. A non-nil PanelDetails list also replaces its report content.
	UpdateSchedule(ctx context.Context, s domain.Schedule) (domain.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error

	ListContent(ctx context.Context, scheduleID string) ([]domain.PanelDetail, error)
	CreateContent(ctx context.Context, d domain.PanelDetail) (domain.PanelDetail, error)
	UpdateContent(ctx context.Context, d domain.PanelDetail) (domain.PanelDetail, error)
	DeleteContent(ctx context.Context, id string) error

	// Overdue lists the schedules due at now, with their report content.
	Overdue(ctx context.Context, now time.Time) ([]domain.Schedule, error)
	// Advance stores the next report time of s after now and returns it.
	Advance(ctx context.Context, s domain.Schedule, now time.Time) (int64, error)
}

type Stores struct {
	Schedules schedulestore.Store
	Contents  contentstore.Store
	Groups    groupstore.Store
}

type scheduleMgmtService struct {
	db     *sql.DB
	stores Stores
	now    func() time.Time
}

// NewManagementService uses now as the clock for next report times; nil means time.Now.
func NewManagementService(db *sql.DB, stores Stores, now func() time.Time) ManagementService {
	if now == nil {
		now = time.Now
	}
	return &scheduleMgmtService{
		db:     db,
		stores: stores,
		now:    now,
	}
}

func (s *scheduleMgmtService) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	schedules, err := s.stores.Schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	contents, err := s.stores.Contents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return withContent(schedules, contents), nil
}

func (s *scheduleMgmtService) Overdue(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	schedules, err := s.stores.Schedules.Overdue(ctx, now.Unix())
	if err != nil {
		return nil, err
	}
	contents, err := s.stores.Contents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return withContent(schedules, contents), nil
}

func withContent(schedules []store.Schedule, contents []store.ReportContent) []domain.Schedule {
	bySchedule := make(map[string][]store.ReportContent, len(schedules))
	for _, c := range contents {
		bySchedule[c.ScheduleID] = append(bySchedule[c.ScheduleID], c)
	}

	result := make([]domain.Schedule, 0, len(schedules))
	for _, sc := range schedules {
		result = append(result, adapters.MapStoreScheduleToDomain(sc, bySchedule[sc.ID]))
	}
	return result
}

func (s *scheduleMgmtService) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	sc, err := s.stores.Schedules.Get(ctx, id)
	if err != nil {
		return domain.Schedule{}, resources.FromStore(err)
	}
	contents, err := s.stores.Contents.List(ctx, id)
	if err != nil {
		return domain.Schedule{}, err
	}
	return adapters.MapStoreScheduleToDomain(*sc, contents), nil
}

func (s *scheduleMgmtService) validate(ctx context.Context, sc domain.Schedule) error {
	if strings.TrimSpace(sc.Name) == "" {
		return resources.Invalid("schedule name is required")
	}
	if !sc.Interval.Valid() {
		return resources.Invalid("unknown report interval %d", int(sc.Interval))
	}
	if !scheduling.ValidTimeOfDay(sc.Time) {
		return resources.Invalid("report time %q is not HH:MM", sc.Time)
	}
	if sc.Day < 0 {
		return resources.Invalid("report day must not be negative")
	}

	if sc.ReportGroupID != "" {
		if _, err := s.stores.Groups.Get(ctx, sc.ReportGroupID); err != nil {
			if errors.Is(err, duckdb.ErrNotFound) {
				return resources.Invalid("report group %s does not exist", sc.ReportGroupID)
			}
			return err
		}
	}

	seen := make(map[domain.PanelRef]struct{}, len(sc.PanelDetails))
	for _, d := range sc.PanelDetails {
		if d.DashboardID == "" {
			return resources.Invalid("panel %d has no dashboard id", d.PanelID)
		}
		if _, ok := seen[d.Ref()]; ok {
			return resources.Conflict("panel %s is selected twice", d.Ref())
		}
		seen[d.Ref()] = struct{}{}
	}

	existing, err := s.stores.Schedules.GetByName(ctx, sc.Name)
	if errors.Is(err, duckdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != sc.ID {
		return resources.Conflict("a schedule named %q already exists", sc.Name)
	}
	return nil
}

func (s *scheduleMgmtService) CreateSchedule(ctx context.Context, sc domain.Schedule) (domain.Schedule, error) {
	sc.ID = uuid.NewString()
	if err := s.validate(ctx, sc); err != nil {
		return domain.Schedule{}, err
	}
	sc.NextReportTime = scheduling.NextReportTime(sc, s.now())

	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		if err := s.stores.Schedules.Create(ctx, adapters.MapDomainScheduleToStore(sc)); err != nil {
			return err
		}
		return s.replaceContent(ctx, sc.ID, sc.PanelDetails)
	})
	if err != nil {
		return domain.Schedule{}, resources.FromStore(err)
	}

	zerolog.Ctx(ctx).Info().
		Str("id", sc.ID).
		Str("interval", sc.Interval.String()).
		Int64("next_report_time", sc.NextReportTime).
		Msg("schedule created")
	return s.GetSchedule(ctx, sc.ID)
}

func (s *scheduleMgmtService) UpdateSchedule(ctx context.Context, sc domain.Schedule) (domain.Schedule, error) {
	if sc.ID == "" {
		return domain.Schedule{}, resources.Invalid("schedule id is required")
	}
	if err := s.validate(ctx, sc); err != nil {
		return domain.Schedule{}, err
	}
	sc.NextReportTime = scheduling.NextReportTime(sc, s.now())

	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		if err := s.stores.Schedules.Update(ctx, adapters.MapDomainScheduleToStore(sc)); err != nil {
			return err
		}
		if sc.PanelDetails == nil {
			return nil
		}
		return s.replaceContent(ctx, sc.ID, sc.PanelDetails)
	})
	if err != nil {
		return domain.Schedule{}, resources.FromStore(err)
	}
	return s.GetSchedule(ctx, sc.ID)
}

// replaceContent makes details the report content of the schedule. Rows of panels that stay
// selected are updated in place.
func (s *scheduleMgmtService) replaceContent(ctx context.Context, scheduleID string, details []domain.PanelDetail) error {
	current, err := s.stores.Contents.List(ctx, scheduleID)
	if err != nil {
		return err
	}

	existing := make(map[domain.PanelRef]store.ReportContent, len(current))
	for _, c := range current {
		existing[adapters.MapStoreReportContentToDomain(c).Ref()] = c
	}

	for _, d := range details {
		d.ScheduleID = scheduleID
		if c, ok := existing[d.Ref()]; ok {
			delete(existing, d.Ref())
			d.ID = c.ID
			if err := s.stores.Contents.Update(ctx, adapters.MapDomainPanelDetailToStore(d)); err != nil {
				return err
			}
			continue
		}
		d.ID = uuid.NewString()
		if err := s.stores.Contents.Create(ctx, adapters.MapDomainPanelDetailToStore(d)); err != nil {
			return err
		}
	}

	for _, c := range existing {
		if err := s.stores.Contents.Delete(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *scheduleMgmtService) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.stores.Schedules.Delete(ctx, id); err != nil {
		return resources.FromStore(err)
	}
	zerolog.Ctx(ctx).Info().Str("id", id).Msg("schedule deleted")
	return nil
}

func (s *scheduleMgmtService) Advance(ctx context.Context, sc domain.Schedule, now time.Time) (int64, error) {
	next := scheduling.NextReportTime(sc, now)
	if err := s.stores.Schedules.SetNextReportTime(ctx, sc.ID, next); err != nil {
		return 0, resources.FromStore(err)
	}
	return next, nil
}

func (s *scheduleMgmtService) ListContent(ctx context.Context, scheduleID string) ([]domain.PanelDetail, error) {
	contents, err := s.stores.Contents.List(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	result := make([]domain.PanelDetail, 0, len(contents))
	for _, c := range contents {
		result = append(result, adapters.MapStoreReportContentToDomain(c))
	}
	return result, nil
}

func (s *scheduleMgmtService) validateContent(ctx context.Context, d domain.PanelDetail) error {
	if d.ScheduleID == "" {
		return resources.Invalid("report content needs a schedule id")
	}
	if d.DashboardID == "" {
		return resources.Invalid("report content needs a dashboard id")
	}
	if d.Variables != "" && d.Variables != "null" && contentvars.Decode(d.Variables, nil) == nil {
		return resources.Invalid("report content variables must be a JSON object of string lists")
	}
	if _, err := s.stores.Schedules.Get(ctx, d.ScheduleID); err != nil {
		if errors.Is(err, duckdb.ErrNotFound) {
			return resources.Invalid("schedule %s does not exist", d.ScheduleID)
		}
		return err
	}
	return nil
}

func (s *scheduleMgmtService) CreateContent(ctx context.Context, d domain.PanelDetail) (domain.PanelDetail, error) {
	if err := s.validateContent(ctx, d); err != nil {
		return domain.PanelDetail{}, err
	}
	d.ID = uuid.NewString()
	if err := s.stores.Contents.Create(ctx, adapters.MapDomainPanelDetailToStore(d)); err != nil {
		if errors.Is(err, duckdb.ErrConflict) {
			return domain.PanelDetail{}, resources.Conflict("panel %s is already part of schedule %s", d.Ref(), d.ScheduleID)
		}
		return domain.PanelDetail{}, err
	}
	return d, nil
}

func (s *scheduleMgmtService) UpdateContent(ctx context.Context, d domain.PanelDetail) (domain.PanelDetail, error) {
	if d.ID == "" {
		return domain.PanelDetail{}, resources.Invalid("report content id is required")
	}
	if err := s.validateContent(ctx, d); err != nil {
		return domain.PanelDetail{}, err
	}
	if err := s.stores.Contents.Update(ctx, adapters.MapDomainPanelDetailToStore(d)); err != nil {
		return domain.PanelDetail{}, resources.FromStore(err)
	}
	return d, nil
}

func (s *scheduleMgmtService) DeleteContent(ctx context.Context, id string) error {
	return resources.FromStore(s.stores.Contents.Delete(ctx, id))
}
