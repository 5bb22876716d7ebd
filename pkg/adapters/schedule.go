package adapters

import (
	"database/sql"

	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/models/domain"
	"github.com/de-tools/report-scheduler/pkg/models/store"
)

func MapStoreScheduleToDomain(s store.Schedule, contents []store.ReportContent) domain.Schedule {
	details := make([]domain.PanelDetail, 0, len(contents))
	for _, c := range contents {
		details = append(details, MapStoreReportContentToDomain(c))
	}
	return domain.Schedule{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		Interval:       domain.Interval(s.Interval),
		Time:           s.Time,
		Day:            s.Day,
		ReportGroupID:  s.ReportGroupID,
		NextReportTime: s.NextReportTime,
		DateFormat:     s.DateFormat,
		DatePosition:   s.DatePosition,
		PanelDetails:   details,
	}
}

func MapDomainScheduleToStore(s domain.Schedule) store.Schedule {
	return store.Schedule{
		ID:             s.ID,
		Interval:       int(s.Interval),
		NextReportTime: s.NextReportTime,
		Name:           s.Name,
		Description:    s.Description,
		ReportGroupID:  s.ReportGroupID,
		Time:           s.Time,
		Day:            s.Day,
		DateFormat:     s.DateFormat,
		DatePosition:   s.DatePosition,
	}
}

func MapDomainScheduleToAPI(s domain.Schedule) api.Schedule {
	details := make([]api.ReportContent, 0, len(s.PanelDetails))
	for _, d := range s.PanelDetails {
		details = append(details, MapDomainPanelDetailToAPI(d))
	}
	return api.Schedule{
		ID:             s.ID,
		Interval:       int(s.Interval),
		NextReportTime: s.NextReportTime,
		Name:           s.Name,
		Description:    s.Description,
		ReportGroupID:  s.ReportGroupID,
		Time:           s.Time,
		Day:            s.Day,
		DateFormat:     s.DateFormat,
		DatePosition:   s.DatePosition,
		PanelDetails:   details,
	}
}

// MapAPIScheduleToDomain keeps a missing panelDetails list nil so callers can tell it from an empty one.
func MapAPIScheduleToDomain(s api.Schedule) domain.Schedule {
	var details []domain.PanelDetail
	if s.PanelDetails != nil {
		details = make([]domain.PanelDetail, 0, len(s.PanelDetails))
	}
	for _, d := range s.PanelDetails {
		details = append(details, MapAPIPanelDetailToDomain(d))
	}
	return domain.Schedule{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		Interval:       domain.Interval(s.Interval),
		Time:           s.Time,
		Day:            s.Day,
		ReportGroupID:  s.ReportGroupID,
		NextReportTime: s.NextReportTime,
		DateFormat:     s.DateFormat,
		DatePosition:   s.DatePosition,
		PanelDetails:   details,
	}
}

func MapStoreReportContentToDomain(c store.ReportContent) domain.PanelDetail {
	return domain.PanelDetail{
		ID:          c.ID,
		ScheduleID:  c.ScheduleID,
		PanelID:     c.PanelID,
		DashboardID: c.DashboardID,
		Lookback:    c.Lookback,
		Variables:   c.Variables.String,
	}
}

func MapDomainPanelDetailToStore(d domain.PanelDetail) store.ReportContent {
	return store.ReportContent{
		ID:          d.ID,
		ScheduleID:  d.ScheduleID,
		PanelID:     d.PanelID,
		DashboardID: d.DashboardID,
		Lookback:    d.Lookback,
		Variables:   sql.NullString{String: d.Variables, Valid: d.Variables != ""},
	}
}

func MapDomainPanelDetailToAPI(d domain.PanelDetail) api.ReportContent {
	var variables *string
	if d.Variables != "" {
		v := d.Variables
		variables = &v
	}
	return api.ReportContent{
		ID:          d.ID,
		ScheduleID:  d.ScheduleID,
		PanelID:     d.PanelID,
		DashboardID: d.DashboardID,
		Lookback:    d.Lookback,
		Variables:   variables,
	}
}

func MapAPIPanelDetailToDomain(c api.ReportContent) domain.PanelDetail {
	d := domain.PanelDetail{
		ID:          c.ID,
		ScheduleID:  c.ScheduleID,
		PanelID:     c.PanelID,
		DashboardID: c.DashboardID,
		Lookback:    c.Lookback,
	}
	if c.Variables != nil {
		d.Variables = *c.Variables
	}
	return d
}
