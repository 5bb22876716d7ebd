package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/panels"
	"github.com/de-tools/report-scheduler/pkg/services/resources/reportgroup"
	"github.com/de-tools/report-scheduler/pkg/services/resources/schedule"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	contentstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/content"
	groupstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/reportgroup"
	schedulestore "github.com/de-tools/report-scheduler/pkg/store/duckdb/schedule"
	settingsstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/settings"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type staticUsers struct {
	users []domain.User
	err   error
	calls []uint
}

func (u *staticUsers) Users(_ context.Context, dsID uint) ([]domain.User, error) {
	u.calls = append(u.calls, dsID)
	return u.users, u.err
}

type grafanaUsers struct {
	staticUsers
	panels    []domain.Panel
	panelsErr error
	opts      panels.Options
}

func (g *grafanaUsers) Panels(_ context.Context, _ uint, opts panels.Options) ([]domain.Panel, error) {
	g.opts = opts
	return g.panels, g.panelsErr
}

type fixture struct {
	svc        *Service
	schedules  schedule.ManagementService
	groups     reportgroup.ManagementService
	settings   settings.ManagementService
	dispatcher *recordingDispatcher
	users      *staticUsers
	now        time.Time
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	schedules, err := schedulestore.NewStore(db)
	require.NoError(t, err)
	contents, err := contentstore.NewStore(db)
	require.NoError(t, err)
	groups, err := groupstore.NewStore(db)
	require.NoError(t, err)
	st, err := settingsstore.NewStore(db)
	require.NoError(t, err)

	f := &fixture{
		groups:     reportgroup.NewManagementService(db, groups),
		dispatcher: &recordingDispatcher{},
		users: &staticUsers{users: []domain.User{
			{ID: "u1", Name: "Ann", Email: "ann@example.org"},
		}},
		now: created,
	}
	f.schedules = schedule.NewManagementService(db, schedule.Stores{
		Schedules: schedules,
		Contents:  contents,
		Groups:    groups,
	}, func() time.Time { return created })

	f.settings = settings.NewManagementService(st, domain.Settings{DatasourceID: 3})
	f.svc, err = NewService(Dependencies{
		Schedules:  f.schedules,
		Groups:     f.groups,
		Settings:   f.settings,
		Users:      f.users,
		Dispatcher: f.dispatcher,
		Now:        func() time.Time { return f.now },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) createSchedule(t *testing.T, withPanels bool) domain.Schedule {
	ctx := context.Background()
	group, err := f.groups.CreateReportGroup(ctx, domain.ReportGroup{Name: "Managers", Members: []string{"u1", "u2"}})
	require.NoError(t, err)

	s := domain.Schedule{
		Name:          "Daily stock",
		Interval:      domain.IntervalDaily,
		Time:          "09:00",
		ReportGroupID: group.ID,
	}
	if withPanels {
		s.PanelDetails = []domain.PanelDetail{
			{PanelID: 1, DashboardID: "stock", Lookback: "30d", Variables: `{"store":["s1"]}`},
		}
	}
	s, err = f.schedules.CreateSchedule(ctx, s)
	require.NoError(t, err)
	return s
}

func TestNewService_MissingDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}

func TestBuildJob(t *testing.T) {
	f := setupFixture(t)
	s := f.createSchedule(t, true)

	job, err := f.svc.BuildJob(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, s.ID, job.ScheduleID)
	assert.Equal(t, "daily", job.Interval)
	assert.Equal(t, uint(3), job.DatasourceID)
	assert.Equal(t, []uint{3}, f.users.calls)
	assert.ElementsMatch(t, []Recipient{
		{UserID: "u1", Name: "Ann", Email: "ann@example.org"},
		{UserID: "u2"},
	}, job.Recipients)
	require.Len(t, job.Panels, 1)
	assert.Equal(t, map[string][]string{"store": {"s1"}}, job.Panels[0].Variables)
}

func TestBuildJob_UserLookupFailureKeepsIDs(t *testing.T) {
	f := setupFixture(t)
	f.users.users = nil
	f.users.err = errors.New("datasource down")
	s := f.createSchedule(t, true)

	job, err := f.svc.BuildJob(context.Background(), s)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Recipient{{UserID: "u1"}, {UserID: "u2"}}, job.Recipients)
}

func TestSendNow(t *testing.T) {
	f := setupFixture(t)
	s := f.createSchedule(t, true)

	job, err := f.svc.SendNow(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, job.Test)
	require.Len(t, f.dispatcher.jobs, 1)

	got, err := f.schedules.GetSchedule(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.NextReportTime, got.NextReportTime)
}

func TestBuildJob_KeepsCurrentEligiblePanels(t *testing.T) {
	tests := []struct {
		name      string
		panelsErr error
		want      []int
	}{
		{name: "stale and ineligible panels dropped", want: []int{1}},
		{name: "panels unavailable", panelsErr: errors.New("grafana down"), want: []int{1, 2, 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			directory := &grafanaUsers{
				panels: []domain.Panel{
					{ID: 1, DashboardID: "stock"},
					{ID: 2, DashboardID: "stock", Error: domain.PanelErrUnsupportedMacro},
				},
				panelsErr: tt.panelsErr,
			}
			svc, err := NewService(Dependencies{
				Schedules:  f.schedules,
				Groups:     f.groups,
				Settings:   f.settings,
				Users:      directory,
				Dispatcher: f.dispatcher,
			})
			require.NoError(t, err)

			s, err := f.schedules.CreateSchedule(context.Background(), domain.Schedule{
				Name:     "Stock",
				Interval: domain.IntervalDaily,
				Time:     "09:00",
				PanelDetails: []domain.PanelDetail{
					{PanelID: 1, DashboardID: "stock"},
					{PanelID: 2, DashboardID: "stock"},
					{PanelID: 99, DashboardID: "stock"},
				},
			})
			require.NoError(t, err)

			job, err := svc.BuildJob(context.Background(), s)
			require.NoError(t, err)
			got := make([]int, 0, len(job.Panels))
			for _, p := range job.Panels {
				got = append(got, p.PanelID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestBuildJob_StrictVariableMatch(t *testing.T) {
	f := setupFixture(t)
	directory := &grafanaUsers{panels: []domain.Panel{{ID: 1, DashboardID: "stock"}}}
	svc, err := NewService(Dependencies{
		Schedules:    f.schedules,
		Groups:       f.groups,
		Settings:     f.settings,
		Users:        directory,
		PanelOptions: panels.Options{StrictVariableMatch: true},
		Dispatcher:   f.dispatcher,
	})
	require.NoError(t, err)
	s := f.createSchedule(t, true)

	_, err = svc.BuildJob(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, directory.opts.StrictVariableMatch)
}

func TestBuildJob_WithoutReportGroup(t *testing.T) {
	f := setupFixture(t)
	s, err := f.schedules.CreateSchedule(context.Background(), domain.Schedule{
		Name:     "Ungrouped",
		Interval: domain.IntervalDaily,
		Time:     "09:00",
	})
	require.NoError(t, err)

	job, err := f.svc.BuildJob(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, uint(3), job.DatasourceID)
	assert.Empty(t, job.Recipients)
}

func usersGrafana(t *testing.T, queries *int) *httptest.Server {
	frame := data.NewFrame("A",
		data.NewField("id", nil, []string{"u1", "u2"}),
		data.NewField("name", nil, []string{"ann", "bob"}),
		data.NewField("first_name", nil, []string{"Ann", "Bob"}),
		data.NewField("last_name", nil, []string{"Lee", "Ray"}),
		data.NewField("e_mail", nil, []string{"ann@example.org", "bob@example.org"}),
	)
	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ds/query", func(w http.ResponseWriter, r *http.Request) {
		*queries++
		user, password, ok := r.BasicAuth()
		if !ok || user != "admin" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = fmt.Fprintf(w, `{"results":{"A":{"frames":[%s]}}}`, raw)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSendNow_ResolvesRecipientsThroughSavedSettings(t *testing.T) {
	f := setupFixture(t)
	var queries int
	grafana := usersGrafana(t, &queries)

	svc, err := NewService(Dependencies{
		Schedules:  f.schedules,
		Groups:     f.groups,
		Settings:   f.settings,
		Directory:  GrafanaDirectory(domain.ConfigProfile{}, grafana.Client()),
		Dispatcher: f.dispatcher,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = f.settings.SaveSettings(ctx, domain.Settings{
		GrafanaURL:      grafana.URL,
		GrafanaUsername: "admin",
		GrafanaPassword: "secret",
		DatasourceID:    3,
	})
	require.NoError(t, err)
	s := f.createSchedule(t, true)

	job, err := svc.SendNow(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, queries)
	assert.ElementsMatch(t, []Recipient{
		{UserID: "u1", Name: "ann", Email: "ann@example.org"},
		{UserID: "u2", Name: "bob", Email: "bob@example.org"},
	}, job.Recipients)
}

func TestGrafanaDirectory(t *testing.T) {
	boot := domain.ConfigProfile{URL: "http://grafana:3000", Token: "boot-token"}

	tests := []struct {
		name    string
		boot    domain.ConfigProfile
		st      domain.Settings
		wantNil bool
	}{
		{name: "nothing configured", st: domain.Settings{}, wantNil: true},
		{name: "boot profile only", boot: boot, st: domain.Settings{}},
		{name: "settings repeat the boot url", boot: boot, st: domain.Settings{GrafanaURL: boot.URL}},
		{name: "saved settings", st: domain.Settings{GrafanaURL: "http://other:3000", GrafanaUsername: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := GrafanaDirectory(tt.boot, nil)(tt.st)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, dir)
			} else {
				assert.NotNil(t, dir)
			}
		})
	}
}

func TestSendNow_NothingToSend(t *testing.T) {
	f := setupFixture(t)
	s := f.createSchedule(t, false)

	_, err := f.svc.SendNow(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNothingToSend)
	assert.Empty(t, f.dispatcher.jobs)
}

func TestRunDue(t *testing.T) {
	tests := []struct {
		name       string
		withPanels bool
		after      time.Duration
		dispatch   error
		wantSent   int
		wantMoved  bool
	}{
		{name: "not yet due", withPanels: true, after: time.Hour, wantSent: 0, wantMoved: false},
		{name: "due", withPanels: true, after: 24 * time.Hour, wantSent: 1, wantMoved: true},
		{name: "due without panels", withPanels: false, after: 24 * time.Hour, wantSent: 0, wantMoved: true},
		{name: "dispatch fails", withPanels: true, after: 24 * time.Hour, dispatch: errors.New("renderer down"), wantSent: 0, wantMoved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			f.dispatcher.err = tt.dispatch
			s := f.createSchedule(t, tt.withPanels)
			f.now = created.Add(tt.after)

			sent, err := f.svc.RunDue(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)

			got, err := f.schedules.GetSchedule(context.Background(), s.ID)
			require.NoError(t, err)
			if tt.wantMoved {
				assert.Greater(t, got.NextReportTime, f.now.Unix())
			} else {
				assert.Equal(t, s.NextReportTime, got.NextReportTime)
			}
		})
	}
}
