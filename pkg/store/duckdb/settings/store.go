package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/models/store"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
)

// Store keeps the single plugin settings row.
type Store interface {
	// Get returns duckdb.ErrNotFound until settings have been saved.
	Get(ctx context.Context) (*store.Settings, error)
	Save(ctx context.Context, s store.Settings) error
}

const settingsRowID = 1

type settingsStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &settingsStore{
		db: db,
	}, nil
}

func (s *settingsStore) Get(ctx context.Context) (*store.Settings, error) {
	var st store.Settings
	err := duckdb.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT grafana_url, grafana_username, grafana_password,
			sender_email_address, sender_email_password, sender_email_host, sender_email_port,
			datasource_id, updated_at
		FROM settings WHERE id = ?`, settingsRowID).
		Scan(
			&st.GrafanaURL, &st.GrafanaUsername, &st.GrafanaPassword,
			&st.SenderEmailAddress, &st.SenderEmailPassword, &st.SenderEmailHost, &st.SenderEmailPort,
			&st.DatasourceID, &st.UpdatedAt,
		)
	if err != nil {
		return nil, duckdb.WrapError("get settings", err)
	}
	return &st, nil
}

func (s *settingsStore) Save(ctx context.Context, st store.Settings) error {
	_, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO settings (
			id, grafana_url, grafana_username, grafana_password,
			sender_email_address, sender_email_password, sender_email_host, sender_email_port,
			datasource_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			grafana_url = excluded.grafana_url,
			grafana_username = excluded.grafana_username,
			grafana_password = excluded.grafana_password,
			sender_email_address = excluded.sender_email_address,
			sender_email_password = excluded.sender_email_password,
			sender_email_host = excluded.sender_email_host,
			sender_email_port = excluded.sender_email_port,
			datasource_id = excluded.datasource_id,
			updated_at = excluded.updated_at`,
		settingsRowID, st.GrafanaURL, st.GrafanaUsername, st.GrafanaPassword,
		st.SenderEmailAddress, st.SenderEmailPassword, st.SenderEmailHost, st.SenderEmailPort,
		st.DatasourceID,
	)
	return duckdb.WrapError("save settings", err)
}
