package migration_test

import (
	"testing"
	"time"

	activetenantdomain "github.com/smallbiznis/tenancy/internal/activetenant/domain"
	"github.com/smallbiznis/tenancy/internal/migration"
	"github.com/smallbiznis/tenancy/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateCreatesEveryTable(t *testing.T) {
	conn := testkit.DB(t)
	for _, model := range migration.Models() {
		assert.True(t, conn.Migrator().HasTable(model), "%T", model)
	}
}

func TestAutoMigrateIsRepeatable(t *testing.T) {
	conn := testkit.DB(t)
	require.NoError(t, migration.AutoMigrate(conn))
}

func TestOnlyOneActiveTenantPerUser(t *testing.T) {
	conn := testkit.DB(t)
	node := testkit.Node(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	record := func(active bool) *activetenantdomain.ActiveTenant {
		return &activetenantdomain.ActiveTenant{
			ID:         node.Generate(),
			UserID:     5,
			TenantID:   node.Generate(),
			TenantName: "t",
			IsActive:   active,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	testkit.Seed(t, conn, record(true), record(false), record(false))
	assert.Error(t, conn.Create(record(true)).Error)
}

func TestApplyUsesModelsOutsidePostgres(t *testing.T) {
	conn := testkit.DB(t)
	require.NoError(t, migration.Apply(conn, testkit.Logger(t)))
}

func TestRunMigrationsNeedsHandle(t *testing.T) {
	_, _, err := migration.RunMigrations(nil)
	assert.Error(t, err)
}
