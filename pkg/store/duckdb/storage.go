package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ReportGroupSchema = `
	CREATE TABLE IF NOT EXISTS report_group (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL UNIQUE,
		description VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`
const ReportGroupMembershipSchema = `
	CREATE TABLE IF NOT EXISTS report_group_membership (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		report_group_id VARCHAR NOT NULL,
		UNIQUE (report_group_id, user_id)
	);
`
const ScheduleSchema = `
	CREATE TABLE IF NOT EXISTS schedule (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL UNIQUE,
		description VARCHAR NOT NULL DEFAULT '',
		report_interval INTEGER NOT NULL DEFAULT 0,
		time_of_day VARCHAR NOT NULL DEFAULT '',
		day_of_interval INTEGER NOT NULL DEFAULT 1,
		report_group_id VARCHAR NOT NULL DEFAULT '',
		next_report_time BIGINT NOT NULL DEFAULT 0,
		date_format VARCHAR NOT NULL DEFAULT '',
		date_position VARCHAR NOT NULL DEFAULT ''
	);
`
const ReportContentSchema = `
	CREATE TABLE IF NOT EXISTS report_content (
		id VARCHAR PRIMARY KEY,
		schedule_id VARCHAR NOT NULL,
		panel_id INTEGER NOT NULL,
		dashboard_id VARCHAR NOT NULL,
		lookback VARCHAR NOT NULL DEFAULT '',
		variables VARCHAR,
		UNIQUE (schedule_id, panel_id, dashboard_id)
	);
`
const SettingsSchema = `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		grafana_url VARCHAR NOT NULL DEFAULT '',
		grafana_username VARCHAR NOT NULL DEFAULT '',
		grafana_password VARCHAR NOT NULL DEFAULT '',
		sender_email_address VARCHAR NOT NULL DEFAULT '',
		sender_email_password VARCHAR NOT NULL DEFAULT '',
		sender_email_host VARCHAR NOT NULL DEFAULT '',
		sender_email_port INTEGER NOT NULL DEFAULT 0,
		datasource_id BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

var bootQueries = []string{
	ReportGroupSchema,
	ReportGroupMembershipSchema,
	ScheduleSchema,
	ReportContentSchema,
	SettingsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
