package content

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/models/store"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
)

// Store persists report content, the panels selected for a schedule.
type Store interface {
	List(ctx context.Context, scheduleID string) ([]store.ReportContent, error)
	ListAll(ctx context.Context) ([]store.ReportContent, error)
	Get(ctx context.Context, id string) (*store.ReportContent, error)
	Create(ctx context.Context, c store.ReportContent) error
	// Update changes lookback and variables. The panel reference of a row is fixed.
	Update(ctx context.Context, c store.ReportContent) error
	Delete(ctx context.Context, id string) error
}

type contentStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &contentStore{
		db: db,
	}, nil
}

const selectContent = `SELECT id, schedule_id, panel_id, dashboard_id, lookback, variables FROM report_content`

func (s *contentStore) List(ctx context.Context, scheduleID string) ([]store.ReportContent, error) {
	return s.list(ctx, selectContent+` WHERE schedule_id = ? ORDER BY dashboard_id, panel_id`, scheduleID)
}

func (s *contentStore) ListAll(ctx context.Context) ([]store.ReportContent, error) {
	return s.list(ctx, selectContent+` ORDER BY schedule_id, dashboard_id, panel_id`)
}

func (s *contentStore) list(ctx context.Context, query string, args ...any) ([]store.ReportContent, error) {
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query report content: %w", err)
	}
	defer rows.Close()

	contents := make([]store.ReportContent, 0)
	for rows.Next() {
		var c store.ReportContent
		if err := rows.Scan(&c.ID, &c.ScheduleID, &c.PanelID, &c.DashboardID, &c.Lookback, &c.Variables); err != nil {
			return nil, fmt.Errorf("scan report content: %w", err)
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

func (s *contentStore) Get(ctx context.Context, id string) (*store.ReportContent, error) {
	var c store.ReportContent
	err := duckdb.Conn(ctx, s.db).QueryRowContext(ctx, selectContent+` WHERE id = ?`, id).
		Scan(&c.ID, &c.ScheduleID, &c.PanelID, &c.DashboardID, &c.Lookback, &c.Variables)
	if err != nil {
		return nil, duckdb.WrapError("get report content", err)
	}
	return &c, nil
}

func (s *contentStore) Create(ctx context.Context, c store.ReportContent) error {
	_, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO report_content (id, schedule_id, panel_id, dashboard_id, lookback, variables)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ScheduleID, c.PanelID, c.DashboardID, c.Lookback, c.Variables,
	)
	return duckdb.WrapError("insert report content", err)
}

func (s *contentStore) Update(ctx context.Context, c store.ReportContent) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE report_content SET lookback = ?, variables = ? WHERE id = ?`,
		c.Lookback, c.Variables, c.ID,
	)
	if err != nil {
		return duckdb.WrapError("update report content", err)
	}
	return duckdb.RequireAffected("update report content", res)
}

func (s *contentStore) Delete(ctx context.Context, id string) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM report_content WHERE id = ?`, id)
	if err != nil {
		return duckdb.WrapError("delete report content", err)
	}
	return duckdb.RequireAffected("delete report content", res)
}
