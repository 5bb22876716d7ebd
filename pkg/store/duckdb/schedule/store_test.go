package schedule

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

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: s,
	}
}

func weekly(id, name string, next int64) store.Schedule {
	return store.Schedule{
		ID:             id,
		Name:           name,
		Interval:       1,
		Time:           "09:00",
		Day:            1,
		ReportGroupID:  "g1",
		NextReportTime: next,
		DateFormat:     "DD/MM/YYYY",
		DatePosition:   "top",
	}
}

func TestScheduleStore_CRUD(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Create(ctx, weekly("s1", "Stock on hand", 1000)))
	require.NoError(t, f.store.Create(ctx, weekly("s2", "Expiring items", 3000)))

	t.Run("get", func(t *testing.T) {
		sc, err := f.store.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, weekly("s1", "Stock on hand", 1000), *sc)
	})

	t.Run("get by name", func(t *testing.T) {
		sc, err := f.store.GetByName(ctx, "Expiring items")
		require.NoError(t, err)
		assert.Equal(t, "s2", sc.ID)
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := f.store.Create(ctx, weekly("s3", "Stock on hand", 0))
		assert.ErrorIs(t, err, duckdb.ErrConflict)
	})

	t.Run("list sorted by name", func(t *testing.T) {
		list, err := f.store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Expiring items", list[0].Name)
	})

	t.Run("list by group", func(t *testing.T) {
		list, err := f.store.ListByGroup(ctx, "g1")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = f.store.ListByGroup(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("overdue", func(t *testing.T) {
		list, err := f.store.Overdue(ctx, 2000)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "s1", list[0].ID)
	})

	t.Run("set next report time", func(t *testing.T) {
		require.NoError(t, f.store.SetNextReportTime(ctx, "s1", 5000))
		list, err := f.store.Overdue(ctx, 2000)
		require.NoError(t, err)
		assert.Empty(t, list)

		assert.ErrorIs(t, f.store.SetNextReportTime(ctx, "missing", 1), duckdb.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		updated := weekly("s2", "Expiring stock", 4000)
		updated.Interval = 3
		require.NoError(t, f.store.Update(ctx, updated))

		sc, err := f.store.Get(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, updated, *sc)
	})
}

func TestScheduleStore_DeleteRemovesContent(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Create(ctx, weekly("s1", "Stock on hand", 0)))
	_, err := f.db.Exec(`INSERT INTO report_content (id, schedule_id, panel_id, dashboard_id) VALUES ('c1', 's1', 2, 'dash'), ('c2', 's9', 2, 'dash')`)
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(ctx, "s1"))

	var remaining int
	require.NoError(t, f.db.QueryRow(`SELECT count(*) FROM report_content`).Scan(&remaining))
	assert.Equal(t, 1, remaining)

	_, err = f.store.Get(ctx, "s1")
	assert.ErrorIs(t, err, duckdb.ErrNotFound)
	assert.ErrorIs(t, f.store.Delete(ctx, "s1"), duckdb.ErrNotFound)
}
