package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/services/dispatch"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScheduleService struct {
	mock.Mock
}

func (m *mockScheduleService) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *mockScheduleService) GetSchedule(ctx context.Context, id string) (domain.Schedule, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Schedule), args.Error(1)
}

func (m *mockScheduleService) CreateSchedule(ctx context.Context, s domain.Schedule) (domain.Schedule, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Schedule), args.Error(1)
}

func (m *mockScheduleService) UpdateSchedule(ctx context.Context, s domain.Schedule) (domain.Schedule, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Schedule), args.Error(1)
}

func (m *mockScheduleService) DeleteSchedule(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockScheduleService) ListContent(ctx context.Context, scheduleID string) ([]domain.PanelDetail, error) {
	args := m.Called(ctx, scheduleID)
	return args.Get(0).([]domain.PanelDetail), args.Error(1)
}

func (m *mockScheduleService) CreateContent(ctx context.Context, d domain.PanelDetail) (domain.PanelDetail, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(domain.PanelDetail), args.Error(1)
}

func (m *mockScheduleService) UpdateContent(ctx context.Context, d domain.PanelDetail) (domain.PanelDetail, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(domain.PanelDetail), args.Error(1)
}

func (m *mockScheduleService) DeleteContent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockScheduleService) Overdue(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *mockScheduleService) Advance(ctx context.Context, s domain.Schedule, now time.Time) (int64, error) {
	args := m.Called(ctx, s, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendNow(ctx context.Context, scheduleID string) (dispatch.Job, error) {
	args := m.Called(ctx, scheduleID)
	return args.Get(0).(dispatch.Job), args.Error(1)
}

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/schedule", h.ListSchedules)
	r.Post("/schedule", h.CreateSchedule)
	r.Get("/schedule/{id}", h.GetSchedule)
	r.Put("/schedule/{id}", h.UpdateSchedule)
	r.Delete("/schedule/{id}", h.DeleteSchedule)
	r.Get("/report-content", h.ListReportContent)
	r.Post("/report-content", h.CreateReportContent)
	r.Put("/report-content/{id}", h.UpdateReportContent)
	r.Delete("/report-content/{id}", h.DeleteReportContent)
	r.Get("/test-email", h.SendTestEmail)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

func TestListSchedules(t *testing.T) {
	svc := new(mockScheduleService)
	svc.On("ListSchedules", mock.Anything).Return([]domain.Schedule{
		{ID: "s1", Name: "Daily", Interval: domain.IntervalWeekly, PanelDetails: []domain.PanelDetail{
			{ID: "c1", ScheduleID: "s1", PanelID: 2, DashboardID: "stock", Variables: `{"store":["a"]}`},
			{ID: "c2", ScheduleID: "s1", PanelID: 3, DashboardID: "stock"},
		}},
	}, nil)

	rr := serve(NewHandler(svc, nil), http.MethodGet, "/schedule", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got []api.Schedule
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Interval)
	require.Len(t, got[0].PanelDetails, 2)
	require.NotNil(t, got[0].PanelDetails[0].Variables)
	assert.Equal(t, `{"store":["a"]}`, *got[0].PanelDetails[0].Variables)
	assert.Nil(t, got[0].PanelDetails[1].Variables)
}

func TestCreateSchedule(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "created", body: `{"name":"Daily","interval":0,"time":"09:00"}`, wantStatus: http.StatusCreated},
		{name: "unknown group", body: `{"name":"Daily","reportGroupID":"g9"}`, err: resources.Invalid("report group g9 does not exist"), wantStatus: http.StatusBadRequest},
		{name: "duplicate panel", body: `{"name":"Daily"}`, err: resources.Conflict("panel stock/1 selected twice"), wantStatus: http.StatusConflict},
		{name: "store failure", body: `{"name":"Daily"}`, err: errors.New("io error"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockScheduleService)
			svc.On("CreateSchedule", mock.Anything, mock.AnythingOfType("domain.Schedule")).
				Return(domain.Schedule{ID: "s1", Name: "Daily"}, tt.err)

			rr := serve(NewHandler(svc, nil), http.MethodPost, "/schedule", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestUpdateSchedule_KeepsContentWhenOmitted(t *testing.T) {
	svc := new(mockScheduleService)
	svc.On("UpdateSchedule", mock.Anything, mock.MatchedBy(func(s domain.Schedule) bool {
		return s.ID == "s1" && s.PanelDetails == nil
	})).Return(domain.Schedule{ID: "s1", Name: "Renamed"}, nil)

	rr := serve(NewHandler(svc, nil), http.MethodPut, "/schedule/s1", `{"name":"Renamed"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestDeleteSchedule(t *testing.T) {
	svc := new(mockScheduleService)
	svc.On("DeleteSchedule", mock.Anything, "s1").Return(nil)

	rr := serve(NewHandler(svc, nil), http.MethodDelete, "/schedule/s1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestReportContent(t *testing.T) {
	svc := new(mockScheduleService)
	svc.On("ListContent", mock.Anything, "s1").Return([]domain.PanelDetail{{ID: "c1", ScheduleID: "s1", PanelID: 1, DashboardID: "d"}}, nil)
	svc.On("CreateContent", mock.Anything, domain.PanelDetail{ScheduleID: "s1", PanelID: 1, DashboardID: "d", Lookback: "7d"}).
		Return(domain.PanelDetail{ID: "c1", ScheduleID: "s1", PanelID: 1, DashboardID: "d", Lookback: "7d"}, nil)
	svc.On("UpdateContent", mock.Anything, domain.PanelDetail{ID: "c1", ScheduleID: "s1", PanelID: 1, DashboardID: "d", Variables: `{"a":["1"]}`}).
		Return(domain.PanelDetail{ID: "c1"}, nil)
	svc.On("DeleteContent", mock.Anything, "c1").Return(nil)
	h := NewHandler(svc, nil)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/report-content?schedule-id=s1", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/report-content", "").Code)
	assert.Equal(t, http.StatusCreated, serve(h, http.MethodPost, "/report-content",
		`{"scheduleID":"s1","panelID":1,"dashboardID":"d","lookback":"7d"}`).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPut, "/report-content/c1",
		`{"scheduleID":"s1","panelID":1,"dashboardID":"d","variables":"{\"a\":[\"1\"]}"}`).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodDelete, "/report-content/c1", "").Code)
	svc.AssertExpectations(t)
}

func TestSendTestEmail(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
	}{
		{name: "sent", target: "/test-email?schedule-id=s1", wantStatus: http.StatusOK},
		{name: "missing id", target: "/test-email", wantStatus: http.StatusBadRequest},
		{name: "nothing to send", target: "/test-email?schedule-id=s1", err: dispatch.ErrNothingToSend, wantStatus: http.StatusBadRequest},
		{name: "unknown schedule", target: "/test-email?schedule-id=s1", err: resources.ErrNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := new(mockSender)
			sender.On("SendNow", mock.Anything, "s1").
				Return(dispatch.Job{Name: "Daily", Recipients: []dispatch.Recipient{{UserID: "u1"}}}, tt.err)

			rr := serve(NewHandler(new(mockScheduleService), sender), http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var msg api.Message
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&msg))
				assert.Equal(t, `report "Daily" sent to 1 recipients`, msg.Message)
			}
		})
	}
}
