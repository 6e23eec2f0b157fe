package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Violation is the integrity rule a driver error reports.
type Violation int

const (
	ViolationNone Violation = iota
	ViolationUnique
	ViolationForeignKey
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ClassifyViolation inspects err as raised by any supported driver.
func ClassifyViolation(err error) Violation {
	if err == nil {
		return ViolationNone
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ViolationUnique
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ViolationForeignKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ViolationUnique
		case pgForeignKeyViolation:
			return ViolationForeignKey
		}
		return ViolationNone
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Error 1062"), strings.Contains(msg, "UNIQUE constraint failed"):
		return ViolationUnique
	case strings.Contains(msg, "Error 1451"), strings.Contains(msg, "Error 1452"),
		strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ViolationForeignKey
	}
	return ViolationNone
}

func IsDuplicateKeyErr(err error) bool {
	return ClassifyViolation(err) == ViolationUnique
}

func IsForeignKeyErr(err error) bool {
	return ClassifyViolation(err) == ViolationForeignKey
}
