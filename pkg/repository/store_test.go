package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/tenancy/pkg/db"
	"github.com/smallbiznis/tenancy/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type note struct {
	ID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Title string `gorm:"not null"`
	Body  string
}

func (note) TableName() string { return "notes" }

func setup(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, conn.AutoMigrate(&note{}))
	return conn
}

func TestStoreRoundTrip(t *testing.T) {
	conn := setup(t)
	ctx := context.Background()
	var store Store[note]

	missing, err := store.FindByID(ctx, conn, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Create(ctx, conn, &note{ID: 2, Title: "b", Body: "x"}))
	require.NoError(t, store.Create(ctx, conn, &note{ID: 1, Title: "a", Body: "y"}))

	found, err := store.FindByID(ctx, conn, 2)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "b", found.Title)

	many, err := store.FindByIDs(ctx, conn, []int64{2, 1, 7})
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.EqualValues(t, 1, many[0].ID)

	none, err := store.FindByIDs(ctx, conn, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	ok, err := store.Exists(ctx, conn, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := store.Count(ctx, conn, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestStoreUpdateWritesZeroValues(t *testing.T) {
	conn := setup(t)
	ctx := context.Background()
	var store Store[note]

	require.NoError(t, store.Create(ctx, conn, &note{ID: 1, Title: "a", Body: "y"}))
	require.NoError(t, store.Update(ctx, conn, &note{ID: 1, Title: "a2", Body: ""}))

	found, err := store.FindByID(ctx, conn, 1)
	require.NoError(t, err)
	assert.Equal(t, "a2", found.Title)
	assert.Empty(t, found.Body)
}

func TestStoreFindAndDelete(t *testing.T) {
	conn := setup(t)
	ctx := context.Background()
	var store Store[note]

	for i, title := range []string{"c", "a", "b"} {
		require.NoError(t, store.Create(ctx, conn, &note{ID: int64(i + 1), Title: title}))
	}

	rows, err := store.Find(ctx, conn, nil, option.WithSortBy(option.SortBy{Columns: []string{"title"}, Ascending: true}))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0].Title)

	one, err := store.FindOne(ctx, conn, clause.Eq{Column: clause.Column{Name: "title"}, Value: "b"})
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.EqualValues(t, 3, one.ID)

	removed, err := store.Delete(ctx, conn, 1, 42)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = store.Delete(ctx, conn)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.DeleteWhere(ctx, conn, clause.Eq{Column: clause.Column{Name: "title"}, Value: "a"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	count, err := store.Count(ctx, conn, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
