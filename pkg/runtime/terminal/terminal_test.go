package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/server"
	"github.com/de-tools/report-scheduler/pkg/services/dispatch"
	"github.com/de-tools/report-scheduler/pkg/services/resources/reportgroup"
	scheduleresources "github.com/de-tools/report-scheduler/pkg/services/resources/schedule"
	"github.com/de-tools/report-scheduler/pkg/services/resources/settings"
	"github.com/de-tools/report-scheduler/pkg/services/schedule"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	contentstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/content"
	groupstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/reportgroup"
	schedulestore "github.com/de-tools/report-scheduler/pkg/store/duckdb/schedule"
	settingsstore "github.com/de-tools/report-scheduler/pkg/store/duckdb/settings"
	"github.com/go-chi/chi/v5"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stockDashboard = `{
	"dashboard": {
		"uid": "stock",
		"title": "Stock",
		"templating": {"list": [
			{"name": "store", "type": "query", "definition": "SELECT name FROM store", "datasource": "mSupply"}
		]},
		"panels": [
			{"id": 1, "type": "table", "title": "Stock on hand",
			 "targets": [{"refId": "A", "rawSql": "SELECT * FROM stock WHERE store IN (${store})"}]},
			{"id": 2, "type": "table", "title": "Interval",
			 "targets": [{"refId": "A", "rawSql": "SELECT * FROM stock GROUP BY $__interval"}]}
		]
	},
	"meta": {"slug": "stock"}
}`

type fixture struct {
	profiles   string
	client     *http.Client
	groups     reportgroup.ManagementService
	schedules  scheduleresources.ManagementService
	groupID    string
	scheduleID string
}

func usersResponse(t *testing.T) []byte {
	frame := data.NewFrame("A",
		data.NewField("id", nil, []string{"u1"}),
		data.NewField("name", nil, []string{"jdoe"}),
		data.NewField("first_name", nil, []string{"Jane"}),
		data.NewField("last_name", nil, []string{"Doe"}),
		data.NewField("e_mail", nil, []string{"jane@example.org"}),
	)
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	return []byte(fmt.Sprintf(`{"results":{"A":{"frames":[%s]}}}`, raw))
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

	now := func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	deps := server.Dependencies{
		ReportGroups: reportgroup.NewManagementService(db, groups),
		Schedules:    scheduleresources.NewManagementService(db, scheduleresources.Stores{Schedules: schedules, Contents: contents, Groups: groups}, now),
		Settings:     settings.NewManagementService(st, domain.Settings{}),
		DB:           db,
	}
	sender, err := dispatch.NewService(dispatch.Dependencies{
		Schedules:  deps.Schedules,
		Groups:     deps.ReportGroups,
		Dispatcher: dispatch.LogDispatcher{},
		Now:        now,
	})
	require.NoError(t, err)
	deps.Sender = sender

	mux := chi.NewRouter()
	mux.Mount("/api/plugins/reports-app/resources", server.NewRouter(zerolog.Nop(), deps))
	mux.Get("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": 7, "uid": "stock", "title": "Stock", "type": "dash-db"}]`))
	})
	mux.Get("/api/dashboards/uid/stock", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(stockDashboard))
	})
	mux.Get("/api/datasources/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 3, "uid": "msupply", "name": "mSupply", "type": "postgres"}`))
	})
	users := usersResponse(t)
	mux.Post("/api/ds/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(users)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	profiles := filepath.Join(t.TempDir(), "reportscfg")
	require.NoError(t, os.WriteFile(profiles, []byte(fmt.Sprintf(
		"[DEFAULT]\nurl = %s\ntoken = glsa_test\nplugin_id = reports-app\ndatasource_id = 3\n", srv.URL)), 0o600))

	ctx := context.Background()
	group, err := deps.ReportGroups.CreateReportGroup(ctx, domain.ReportGroup{Name: "Managers"})
	require.NoError(t, err)
	sc, err := deps.Schedules.CreateSchedule(ctx, domain.Schedule{
		Name:          "Weekly stock",
		Interval:      domain.IntervalWeekly,
		Time:          "08:00",
		Day:           1,
		ReportGroupID: group.ID,
	})
	require.NoError(t, err)

	return &fixture{
		profiles:   profiles,
		client:     srv.Client(),
		groups:     deps.ReportGroups,
		schedules:  deps.Schedules,
		groupID:    group.ID,
		scheduleID: sc.ID,
	}
}

func (f *fixture) run(args ...string) (string, error) {
	var out bytes.Buffer
	cli := NewCLI(Options{ProfilesPath: f.profiles, Output: &out, HTTPClient: f.client})
	cli.SetArgs(args)
	err := cli.Execute()
	return out.String(), err
}

func TestCLI_Panels(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run("panels")
	require.NoError(t, err)
	assert.Contains(t, out, "Stock on hand")
	assert.Contains(t, out, domain.PanelErrUnsupportedMacro)

	out, err = f.run("panels", "--eligible")
	require.NoError(t, err)
	assert.Contains(t, out, "Stock on hand")
	assert.NotContains(t, out, "Interval")
}

func TestCLI_EditSchedule(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	out, err := f.run("toggle-panel", "--schedule", f.scheduleID, "--dashboard", "stock", "--panel", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "added to")

	_, err = f.run("toggle-panel", "--schedule", f.scheduleID, "--dashboard", "stock", "--panel", "2")
	assert.ErrorIs(t, err, schedule.ErrPanelIneligible)

	out, err = f.run("set-variable", "--schedule", f.scheduleID, "--dashboard", "stock", "--panel", "1",
		"--name", "store", "--value", "Central", "--value", "North")
	require.NoError(t, err)
	assert.Contains(t, out, `{"store":["Central","North"]}`)

	_, err = f.run("set-lookback", "--schedule", f.scheduleID, "--dashboard", "stock", "--panel", "1", "--lookback", "30d")
	require.NoError(t, err)

	details, err := f.schedules.ListContent(ctx, f.scheduleID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "30d", details[0].Lookback)
	assert.JSONEq(t, `{"store":["Central","North"]}`, details[0].Variables)

	out, err = f.run("schedule", f.scheduleID)
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly stock (weekly)")
	assert.Contains(t, out, "stock/1 over 30d")
	assert.Contains(t, out, "store: Central, North")

	out, err = f.run("schedules")
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly stock")

	out, err = f.run("toggle-panel", "--schedule", f.scheduleID, "--dashboard", "stock", "--panel", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "removed from")
}

func TestCLI_ScheduleHidesStalePanels(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	for _, panelID := range []int{1, 2, 99} {
		_, err := f.schedules.CreateContent(ctx, domain.PanelDetail{
			ScheduleID:  f.scheduleID,
			PanelID:     panelID,
			DashboardID: "stock",
		})
		require.NoError(t, err)
	}

	out, err := f.run("schedule", f.scheduleID)
	require.NoError(t, err)
	assert.Contains(t, out, "- stock/1")
	assert.NotContains(t, out, "stock/2")
	assert.NotContains(t, out, "stock/99")

	details, err := f.schedules.ListContent(ctx, f.scheduleID)
	require.NoError(t, err)
	refs := make([]string, 0, len(details))
	for _, d := range details {
		refs = append(refs, d.Ref().String())
	}
	assert.ElementsMatch(t, []string{"stock/1", "stock/99"}, refs)
}

func TestCLI_Members(t *testing.T) {
	f := setupFixture(t)

	out, err := f.run("add-member", "--group", f.groupID, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "has 1 members")

	out, err = f.run("add-member", "--group", f.groupID, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "has 1 members")

	out, err = f.run("groups")
	require.NoError(t, err)
	assert.Contains(t, out, "Managers")

	out, err = f.run("users")
	require.NoError(t, err)
	assert.Contains(t, out, "jane@example.org")

	out, err = f.run("remove-member", "--group", f.groupID, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "has 0 members")
}

func TestCLI_TestEmail(t *testing.T) {
	f := setupFixture(t)

	_, err := f.run("test-email", "--schedule", f.scheduleID)
	assert.Error(t, err, "nothing selected yet")

	_, err = f.run("add-member", "--group", f.groupID, "--user", "u1")
	require.NoError(t, err)
	_, err = f.run("toggle-panel", "--schedule", f.scheduleID, "--dashboard", "stock", "--panel", "1")
	require.NoError(t, err)

	out, err := f.run("test-email", "--schedule", f.scheduleID)
	require.NoError(t, err)
	assert.Contains(t, out, "sent to 1 recipients")
}

func TestCLI_UnknownProfile(t *testing.T) {
	f := setupFixture(t)

	_, err := f.run("groups", "--profile", "prod")
	assert.Error(t, err)
}
