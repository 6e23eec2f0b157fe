package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

func Dialect(cfg Config) (gorm.Dialector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeMySQL:
		return mysql.Open(cfg.DSN()), nil
	case TypePostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return sqlite.Open(cfg.DSN()), nil
	}
}
