package reportgroup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/models/store"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
)

// Store persists report groups and their memberships.
type Store interface {
	List(ctx context.Context) ([]store.ReportGroup, error)
	Get(ctx context.Context, id string) (*store.ReportGroup, error)
	GetByName(ctx context.Context, name string) (*store.ReportGroup, error)
	Create(ctx context.Context, group store.ReportGroup) error
	Update(ctx context.Context, group store.ReportGroup) error
	// Delete removes the group together with its memberships.
	Delete(ctx context.Context, id string) error

	ListMembers(ctx context.Context, groupID string) ([]store.ReportGroupMembership, error)
	ListAllMembers(ctx context.Context) ([]store.ReportGroupMembership, error)
	GetMember(ctx context.Context, id string) (*store.ReportGroupMembership, error)
	AddMember(ctx context.Context, member store.ReportGroupMembership) error
	RemoveMember(ctx context.Context, id string) error
}

type reportGroupStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &reportGroupStore{
		db: db,
	}, nil
}

const selectGroup = `SELECT id, name, description, created_at FROM report_group`

func (s *reportGroupStore) List(ctx context.Context) ([]store.ReportGroup, error) {
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, selectGroup+` ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query report groups: %w", err)
	}
	defer rows.Close()

	groups := make([]store.ReportGroup, 0)
	for rows.Next() {
		var g store.ReportGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *reportGroupStore) Get(ctx context.Context, id string) (*store.ReportGroup, error) {
	return s.getOne(ctx, "get report group", selectGroup+` WHERE id = ?`, id)
}

func (s *reportGroupStore) GetByName(ctx context.Context, name string) (*store.ReportGroup, error) {
	return s.getOne(ctx, "get report group by name", selectGroup+` WHERE name = ?`, name)
}

func (s *reportGroupStore) getOne(ctx context.Context, op, query string, arg any) (*store.ReportGroup, error) {
	var g store.ReportGroup
	err := duckdb.Conn(ctx, s.db).QueryRowContext(ctx, query, arg).
		Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		return nil, duckdb.WrapError(op, err)
	}
	return &g, nil
}

func (s *reportGroupStore) Create(ctx context.Context, group store.ReportGroup) error {
	_, err := duckdb.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO report_group (id, name, description) VALUES (?, ?, ?)`,
		group.ID, group.Name, group.Description,
	)
	return duckdb.WrapError("insert report group", err)
}

func (s *reportGroupStore) Update(ctx context.Context, group store.ReportGroup) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE report_group SET name = ?, description = ? WHERE id = ?`,
		group.Name, group.Description, group.ID,
	)
	if err != nil {
		return duckdb.WrapError("update report group", err)
	}
	return duckdb.RequireAffected("update report group", res)
}

func (s *reportGroupStore) Delete(ctx context.Context, id string) error {
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		conn := duckdb.Conn(ctx, s.db)
		if _, err := conn.ExecContext(ctx, `DELETE FROM report_group_membership WHERE report_group_id = ?`, id); err != nil {
			return duckdb.WrapError("delete report group memberships", err)
		}
		res, err := conn.ExecContext(ctx, `DELETE FROM report_group WHERE id = ?`, id)
		if err != nil {
			return duckdb.WrapError("delete report group", err)
		}
		return duckdb.RequireAffected("delete report group", res)
	})
}

const selectMember = `SELECT id, user_id, report_group_id FROM report_group_membership`

func (s *reportGroupStore) ListMembers(ctx context.Context, groupID string) ([]store.ReportGroupMembership, error) {
	return s.listMembers(ctx, selectMember+` WHERE report_group_id = ? ORDER BY user_id`, groupID)
}

func (s *reportGroupStore) ListAllMembers(ctx context.Context) ([]store.ReportGroupMembership, error) {
	return s.listMembers(ctx, selectMember+` ORDER BY report_group_id, user_id`)
}

func (s *reportGroupStore) listMembers(ctx context.Context, query string, args ...any) ([]store.ReportGroupMembership, error) {
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query report group memberships: %w", err)
	}
	defer rows.Close()

	members := make([]store.ReportGroupMembership, 0)
	for rows.Next() {
		var m store.ReportGroupMembership
		if err := rows.Scan(&m.ID, &m.UserID, &m.ReportGroupID); err != nil {
			return nil, fmt.Errorf("scan report group membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *reportGroupStore) GetMember(ctx context.Context, id string) (*store.ReportGroupMembership, error) {
	var m store.ReportGroupMembership
	err := duckdb.Conn(ctx, s.db).QueryRowContext(ctx, selectMember+` WHERE id = ?`, id).
		Scan(&m.ID, &m.UserID, &m.ReportGroupID)
	if err != nil {
		return nil, duckdb.WrapError("get report group membership", err)
	}
	return &m, nil
}

func (s *reportGroupStore) AddMember(ctx context.Context, member store.ReportGroupMembership) error {
	_, err := duckdb.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO report_group_membership (id, user_id, report_group_id) VALUES (?, ?, ?)`,
		member.ID, member.UserID, member.ReportGroupID,
	)
	return duckdb.WrapError("insert report group membership", err)
}

func (s *reportGroupStore) RemoveMember(ctx context.Context, id string) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM report_group_membership WHERE id = ?`, id)
	if err != nil {
		return duckdb.WrapError("delete report group membership", err)
	}
	return duckdb.RequireAffected("delete report group membership", res)
}
