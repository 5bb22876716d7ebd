package content

import (
	"context"
	"database/sql"
	"testing"

	"github.com/de-tools/report-scheduler/pkg/models/store"
	"github.com/de-tools/report-scheduler/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFixture(t *testing.T) Store {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})
	return s
}

func TestContentStore(t *testing.T) {
	s := setupFixture(t)
	ctx := context.Background()

	withVars := store.ReportContent{
		ID: "c1", ScheduleID: "s1", PanelID: 2, DashboardID: "dash",
		Lookback:  "7d",
		Variables: sql.NullString{String: `{"store":["A"]}`, Valid: true},
	}
	noVars := store.ReportContent{ID: "c2", ScheduleID: "s1", PanelID: 4, DashboardID: "dash"}
	other := store.ReportContent{ID: "c3", ScheduleID: "s2", PanelID: 2, DashboardID: "dash"}

	for _, c := range []store.ReportContent{withVars, noVars, other} {
		require.NoError(t, s.Create(ctx, c))
	}

	t.Run("same panel twice in a schedule", func(t *testing.T) {
		dup := withVars
		dup.ID = "c9"
		assert.ErrorIs(t, s.Create(ctx, dup), duckdb.ErrConflict)
	})

	t.Run("list by schedule keeps null variables", func(t *testing.T) {
		list, err := s.List(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, []store.ReportContent{withVars, noVars}, list)
	})

	t.Run("list all", func(t *testing.T) {
		list, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})

	t.Run("update", func(t *testing.T) {
		updated := noVars
		updated.Lookback = "30d"
		updated.Variables = sql.NullString{String: "{}", Valid: true}
		require.NoError(t, s.Update(ctx, updated))

		got, err := s.Get(ctx, "c2")
		require.NoError(t, err)
		assert.Equal(t, updated, *got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "c3"))
		assert.ErrorIs(t, s.Delete(ctx, "c3"), duckdb.ErrNotFound)
		_, err := s.Get(ctx, "c3")
		assert.ErrorIs(t, err, duckdb.ErrNotFound)
	})
}
