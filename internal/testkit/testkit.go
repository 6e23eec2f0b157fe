// Package testkit builds the shared fixtures used by service tests: an
// in-memory database carrying the full schema, an id generator and a
// uniqueness validator.
package testkit

import (
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenancy/internal/migration"
	"github.com/smallbiznis/tenancy/internal/uniqueness"
	"github.com/smallbiznis/tenancy/pkg/db"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func DB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := migration.AutoMigrate(conn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// Node returns one generator shared by every service of the test binary so
// ids never collide across services writing the same table.
func Node(t testing.TB) *snowflake.Node {
	t.Helper()

	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(1)
	})
	if nodeErr != nil {
		t.Fatalf("failed to create snowflake node: %v", nodeErr)
	}
	return node
}

func Logger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

func Validator(t testing.TB) *uniqueness.Validator {
	return uniqueness.New(uniqueness.Params{Log: Logger(t)})
}

// Seed inserts rows as given, bypassing every service rule.
func Seed(t testing.TB, conn *gorm.DB, rows ...any) {
	t.Helper()

	for _, row := range rows {
		if err := conn.Create(row).Error; err != nil {
			t.Fatalf("failed to seed %T: %v", row, err)
		}
	}
}
