package db

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSeq atomic.Int64

// NewTest opens a private in-memory sqlite database. A single connection is
// used so every statement sees the same memory store, and LIKE is made
// case-sensitive to match the production collation.
func NewTest() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:tenancy_test_%d?mode=memory&cache=shared", testSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.Exec("PRAGMA case_sensitive_like = ON").Error; err != nil {
		return nil, err
	}
	return conn, nil
}
