// Package dispatch hands due reports to the external renderer and mailer.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/contentvars"
	"github.com/de-tools/report-scheduler/pkg/services/panels"
	"github.com/de-tools/report-scheduler/pkg/services/resources/reportgroup"
	"github.com/de-tools/report-scheduler/pkg/services/resources/schedule"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
	scheduling "github.com/de-tools/report-scheduler/pkg/services/schedule"
	"github.com/rs/zerolog"
)

var ErrNothingToSend = errors.New("schedule has no recipients or panels")

type Recipient struct {
	UserID string `json:"userID"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type Panel struct {
	PanelID     int                 `json:"panelID"`
	DashboardID string              `json:"dashboardID"`
	Lookback    string              `json:"lookback"`
	Variables   map[string][]string `json:"variables"`
}

// Job is one report to render and send.
type Job struct {
	ScheduleID   string      `json:"scheduleID"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Interval     string      `json:"interval"`
	DueAt        int64       `json:"dueAt"`
	DateFormat   string      `json:"dateFormat"`
	DatePosition string      `json:"datePosition"`
	DatasourceID uint        `json:"datasourceID"`
	Recipients   []Recipient `json:"recipients"`
	Panels       []Panel     `json:"panels"`
	Test         bool        `json:"test"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// UserDirectory resolves recipient user ids against the reporting datasource.
type UserDirectory interface {
	Users(ctx context.Context, datasourceID uint) ([]domain.User, error)
}

// PanelSource lists the report panels of the Grafana instance, evaluated against a datasource.
type PanelSource interface {
	Panels(ctx context.Context, dsID uint, opts panels.Options) ([]domain.Panel, error)
}

type Service struct {
	schedules    schedule.ManagementService
	groups       reportgroup.ManagementService
	settings     settings.ManagementService
	users        UserDirectory
	directory    DirectoryFunc
	panelOptions panels.Options
	dispatcher   Dispatcher
	now          func() time.Time
}

type Dependencies struct {
	Schedules    schedule.ManagementService
	Groups       reportgroup.ManagementService
	Settings     settings.ManagementService
	Users        UserDirectory
	Directory    DirectoryFunc
	PanelOptions panels.Options
	Dispatcher   Dispatcher
	Now          func() time.Time
}

func NewService(deps Dependencies) (*Service, error) {
	if deps.Schedules == nil || deps.Groups == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatch needs schedules, report groups and a dispatcher")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		schedules:    deps.Schedules,
		groups:       deps.Groups,
		settings:     deps.Settings,
		users:        deps.Users,
		directory:    deps.Directory,
		panelOptions: deps.PanelOptions,
		dispatcher:   deps.Dispatcher,
		now:          deps.Now,
	}, nil
}

// BuildJob collects recipients and panels of s. Recipient details are best effort.
func (svc *Service) BuildJob(ctx context.Context, s domain.Schedule) (Job, error) {
	logger := zerolog.Ctx(ctx)

	job := Job{
		ScheduleID:   s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Interval:     s.Interval.String(),
		DueAt:        s.NextReportTime,
		DateFormat:   s.DateFormat,
		DatePosition: s.DatePosition,
		Recipients:   []Recipient{},
	}

	var st domain.Settings
	if svc.settings != nil {
		var err error
		st, err = svc.settings.GetSettings(ctx)
		if err != nil {
			return job, fmt.Errorf("load settings: %w", err)
		}
		job.DatasourceID = st.DatasourceID
	}
	directory := svc.userDirectory(ctx, st)

	details := svc.currentDetails(ctx, directory, job.DatasourceID, s)
	job.Panels = make([]Panel, 0, len(details))
	for _, d := range details {
		job.Panels = append(job.Panels, Panel{
			PanelID:     d.PanelID,
			DashboardID: d.DashboardID,
			Lookback:    d.Lookback,
			Variables:   contentvars.Decode(d.Variables, domain.ContentVariables{}),
		})
	}

	if s.ReportGroupID == "" {
		return job, nil
	}
	group, err := svc.groups.GetReportGroup(ctx, s.ReportGroupID)
	if err != nil {
		return job, fmt.Errorf("load report group %s: %w", s.ReportGroupID, err)
	}

	known := map[string]domain.User{}
	if directory != nil && job.DatasourceID != 0 && len(group.Members) > 0 {
		users, err := directory.Users(ctx, job.DatasourceID)
		if err != nil {
			logger.Warn().Err(err).Str("schedule", s.ID).Msg("failed to resolve recipients")
		}
		for _, u := range users {
			known[u.ID] = u
		}
	}

	for _, id := range group.Members {
		r := Recipient{UserID: id}
		if u, ok := known[id]; ok {
			r.Name = u.Name
			r.Email = u.Email
		}
		job.Recipients = append(job.Recipients, r)
	}
	return job, nil
}

// currentDetails keeps the details of s whose panel still exists and is eligible. When the
// panels cannot be listed the persisted details are used as they are.
func (svc *Service) currentDetails(ctx context.Context, directory UserDirectory, dsID uint, s domain.Schedule) []domain.PanelDetail {
	source, ok := directory.(PanelSource)
	if !ok || dsID == 0 || len(s.PanelDetails) == 0 {
		return s.PanelDetails
	}

	list, err := source.Panels(ctx, dsID, svc.panelOptions)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("schedule", s.ID).Msg("failed to list panels, sending persisted selection")
		return s.PanelDetails
	}
	eligible := make([]domain.Panel, 0, len(list))
	for _, p := range list {
		if p.Eligible() {
			eligible = append(eligible, p)
		}
	}
	return scheduling.DerivePanelDetails(eligible, s.PanelDetails)
}

// userDirectory prefers the Grafana named by the saved settings over the boot directory.
func (svc *Service) userDirectory(ctx context.Context, st domain.Settings) UserDirectory {
	if svc.directory == nil {
		return svc.users
	}
	directory, err := svc.directory(st)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to create user directory from settings")
		return svc.users
	}
	if directory == nil {
		return svc.users
	}
	return directory
}

// SendNow dispatches the schedule immediately as a test. Its next report time is left alone.
func (svc *Service) SendNow(ctx context.Context, scheduleID string) (Job, error) {
	s, err := svc.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Job{}, err
	}
	job, err := svc.BuildJob(ctx, s)
	if err != nil {
		return Job{}, err
	}
	if len(job.Recipients) == 0 || len(job.Panels) == 0 {
		return job, ErrNothingToSend
	}
	job.Test = true
	if err := svc.dispatcher.Dispatch(ctx, job); err != nil {
		return job, fmt.Errorf("dispatch test report: %w", err)
	}
	return job, nil
}

// RunDue dispatches every overdue schedule and moves it to its next report time.
// A schedule is advanced even when its dispatch fails, so a broken report is not resent every poll.
func (svc *Service) RunDue(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)
	now := svc.now()

	due, err := svc.schedules.Overdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue schedules: %w", err)
	}

	sent := 0
	for _, s := range due {
		log := logger.With().Str("schedule", s.ID).Str("name", s.Name).Logger()

		job, err := svc.BuildJob(ctx, s)
		switch {
		case err != nil:
			log.Error().Err(err).Msg("failed to build report job")
		case len(job.Recipients) == 0 || len(job.Panels) == 0:
			log.Info().Msg("skipping report without recipients or panels")
		default:
			if err := svc.dispatcher.Dispatch(ctx, job); err != nil {
				log.Error().Err(err).Msg("failed to dispatch report")
			} else {
				sent++
			}
		}

		next, err := svc.schedules.Advance(ctx, s, now)
		if err != nil {
			log.Error().Err(err).Msg("failed to advance schedule")
			continue
		}
		log.Debug().Int64("next_report_time", next).Msg("schedule advanced")
	}
	return sent, nil
}
