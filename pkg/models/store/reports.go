package store

import (
	"database/sql"
	"time"
)

type ReportGroup struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

type ReportGroupMembership struct {
	ID            string
	UserID        string
	ReportGroupID string
}

type Schedule struct {
	ID             string
	Interval       int
	NextReportTime int64
	Name           string
	Description    string
	ReportGroupID  string
	Time           string
	Day            int
	DateFormat     string
	DatePosition   string
}

type ReportContent struct {
	ID          string
	ScheduleID  string
	PanelID     int
	DashboardID string
	Lookback    string
	Variables   sql.NullString
}

type Settings struct {
	GrafanaURL          string
	GrafanaUsername     string
	GrafanaPassword     string
	SenderEmailAddress  string
	SenderEmailPassword string
	SenderEmailHost     string
	SenderEmailPort     int
	DatasourceID        int64
	UpdatedAt           time.Time
}
