package db

import (
	"fmt"
	"time"
)

// Config describes the authorization store connection.
type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Validate rejects a configuration that cannot reach a server dialect.
func (c Config) Validate() error {
	switch c.Type {
	case TypeSQLite:
		return nil
	case TypePostgres, TypeMySQL:
		if c.Host == "" || c.Name == "" {
			return fmt.Errorf("%s requires DATABASE_HOST and DATABASE_NAME", c.Type)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s type", c.Type)
	}
}

// DSN renders the driver connection string. Timestamps are always UTC so
// termination dates compare the same on every dialect.
func (c Config) DSN() string {
	switch c.Type {
	case TypeMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case TypePostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.Host, c.User, c.Password, c.Name, c.Port, sslMode)
	default:
		if c.Name == "" {
			return "tenancy.db?_foreign_keys=1"
		}
		return c.Name
	}
}
