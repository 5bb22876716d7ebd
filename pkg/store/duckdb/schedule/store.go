package schedule

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/models/store"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
)

type Store interface {
	List(ctx context.Context) ([]store.Schedule, error)
	Get(ctx context.Context, id string) (*store.Schedule, error)
	GetByName(ctx context.Context, name string) (*store.Schedule, error)
	// ListByGroup returns the schedules that send to the given report group.
	ListByGroup(ctx context.Context, groupID string) ([]store.Schedule, error)
	// Overdue returns the schedules with a next report time at or before now.
	Overdue(ctx context.Context, now int64) ([]store.Schedule, error)
	Create(ctx context.Context, s store.Schedule) error
	Update(ctx context.Context, s store.Schedule) error
	SetNextReportTime(ctx context.Context, id string, next int64) error
	// Delete removes the schedule and its report content.
	Delete(ctx context.Context, id string) error
}

type scheduleStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &scheduleStore{
		db: db,
	}, nil
}

const selectSchedule = `
	SELECT id, name, description, report_interval, time_of_day, day_of_interval,
		report_group_id, next_report_time, date_format, date_position
	FROM schedule`

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (store.Schedule, error) {
	var s store.Schedule
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Interval, &s.Time, &s.Day,
		&s.ReportGroupID, &s.NextReportTime, &s.DateFormat, &s.DatePosition,
	)
	return s, err
}

func (s *scheduleStore) List(ctx context.Context) ([]store.Schedule, error) {
	return s.list(ctx, selectSchedule+` ORDER BY name`)
}

func (s *scheduleStore) ListByGroup(ctx context.Context, groupID string) ([]store.Schedule, error) {
	return s.list(ctx, selectSchedule+` WHERE report_group_id = ? ORDER BY name`, groupID)
}

func (s *scheduleStore) Overdue(ctx context.Context, now int64) ([]store.Schedule, error) {
	return s.list(ctx, selectSchedule+` WHERE next_report_time > 0 AND next_report_time <= ? ORDER BY next_report_time`, now)
}

func (s *scheduleStore) list(ctx context.Context, query string, args ...any) ([]store.Schedule, error) {
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]store.Schedule, 0)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

func (s *scheduleStore) Get(ctx context.Context, id string) (*store.Schedule, error) {
	sc, err := scanSchedule(duckdb.Conn(ctx, s.db).QueryRowContext(ctx, selectSchedule+` WHERE id = ?`, id))
	if err != nil {
		return nil, duckdb.WrapError("get schedule", err)
	}
	return &sc, nil
}

func (s *scheduleStore) GetByName(ctx context.Context, name string) (*store.Schedule, error) {
	sc, err := scanSchedule(duckdb.Conn(ctx, s.db).QueryRowContext(ctx, selectSchedule+` WHERE name = ?`, name))
	if err != nil {
		return nil, duckdb.WrapError("get schedule by name", err)
	}
	return &sc, nil
}

func (s *scheduleStore) Create(ctx context.Context, sc store.Schedule) error {
	_, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO schedule (
			id, name, description, report_interval, time_of_day, day_of_interval,
			report_group_id, next_report_time, date_format, date_position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Description, sc.Interval, sc.Time, sc.Day,
		sc.ReportGroupID, sc.NextReportTime, sc.DateFormat, sc.DatePosition,
	)
	return duckdb.WrapError("insert schedule", err)
}

func (s *scheduleStore) Update(ctx context.Context, sc store.Schedule) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE schedule SET
			name = ?, description = ?, report_interval = ?, time_of_day = ?, day_of_interval = ?,
			report_group_id = ?, next_report_time = ?, date_format = ?, date_position = ?
		WHERE id = ?`,
		sc.Name, sc.Description, sc.Interval, sc.Time, sc.Day,
		sc.ReportGroupID, sc.NextReportTime, sc.DateFormat, sc.DatePosition, sc.ID,
	)
	if err != nil {
		return duckdb.WrapError("update schedule", err)
	}
	return duckdb.RequireAffected("update schedule", res)
}

func (s *scheduleStore) SetNextReportTime(ctx context.Context, id string, next int64) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE schedule SET next_report_time = ? WHERE id = ?`, next, id)
	if err != nil {
		return duckdb.WrapError("set next report time", err)
	}
	return duckdb.RequireAffected("set next report time", res)
}

func (s *scheduleStore) Delete(ctx context.Context, id string) error {
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		conn := duckdb.Conn(ctx, s.db)
		if _, err := conn.ExecContext(ctx, `DELETE FROM report_content WHERE schedule_id = ?`, id); err != nil {
			return duckdb.WrapError("delete schedule content", err)
		}
		res, err := conn.ExecContext(ctx, `DELETE FROM schedule WHERE id = ?`, id)
		if err != nil {
			return duckdb.WrapError("delete schedule", err)
		}
		return duckdb.RequireAffected("delete schedule", res)
	})
}
