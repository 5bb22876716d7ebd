package domain

import "fmt"

type Interval int

const (
	IntervalDaily Interval = iota
	IntervalWeekly
	IntervalFortnightly
	IntervalMonthly
	IntervalQuarterly
	IntervalYearly
)

func (i Interval) String() string {
	switch i {
	case IntervalDaily:
		return "daily"
	case IntervalWeekly:
		return "weekly"
	case IntervalFortnightly:
		return "fortnightly"
	case IntervalMonthly:
		return "monthly"
	case IntervalQuarterly:
		return "quarterly"
	case IntervalYearly:
		return "yearly"
	default:
		return fmt.Sprintf("interval(%d)", int(i))
	}
}

func (i Interval) Valid() bool {
	return i >= IntervalDaily && i <= IntervalYearly
}

type Schedule struct {
	ID             string
	Name           string
	Description    string
	Interval       Interval
	Time           string // HH:MM
	Day            int
	ReportGroupID  string
	NextReportTime int64 // unix seconds
	DateFormat     string
	DatePosition   string
	PanelDetails   []PanelDetail
}

// PanelRef identifies a panel across dashboards. Panel ids are only unique within a dashboard.
type PanelRef struct {
	PanelID     int
	DashboardID string
}

func (r PanelRef) String() string {
	return fmt.Sprintf("%s/%d", r.DashboardID, r.PanelID)
}

// PanelDetail is a panel selected for a schedule, persisted as report content.
type PanelDetail struct {
	ID          string
	ScheduleID  string
	PanelID     int
	DashboardID string
	Lookback    string
	// Variables holds encoded ContentVariables; empty means no selection was stored.
	Variables string
}

func (d PanelDetail) Ref() PanelRef {
	return PanelRef{PanelID: d.PanelID, DashboardID: d.DashboardID}
}
