// Package apperror defines the failure kinds surfaced by the authorization core.
//
// Every error returned by an entity service, the resolver or the active-tenant
// manager matches exactly one of the sentinels below through errors.Is, so
// transports can map them to distinct responses.
package apperror

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

var (
	ErrNotFound             = errors.New("not_found")
	ErrUniqueness           = errors.New("uniqueness_constraint")
	ErrInvalidArgument      = errors.New("invalid_argument")
	ErrReferentialIntegrity = errors.New("referential_integrity")
	ErrTransient            = errors.New("transient_failure")
)

// Error is a typed failure carrying the entity it concerns.
type Error struct {
	Kind    error
	Entity  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UniquenessError reports a composite-key collision. Fields keep the order of
// the key definition that was violated.
type UniquenessError struct {
	Entity string
	Fields []string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s: %s: duplicated field(s): %s", ErrUniqueness.Error(), e.Entity, strings.Join(e.Fields, ", "))
}

func (e *UniquenessError) Is(target error) bool {
	return target == ErrUniqueness
}

func NotFound(entity string, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(entity string, format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func ReferentialIntegrity(entity string, format string, args ...any) error {
	return &Error{Kind: ErrReferentialIntegrity, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func Transient(entity string, cause error) error {
	return &Error{Kind: ErrTransient, Entity: entity, Cause: cause}
}

func Uniqueness(entity string, fields ...string) error {
	return &UniquenessError{Entity: entity, Fields: fields}
}

// MissingField reports a mandatory field that was not informed.
func MissingField(entity string, field string) error {
	return InvalidArgument(entity, "field %s not informed", field)
}

// IsTransient reports whether err is a timeout, cancellation or connection
// failure raised by the store driver.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout")
}

// Classify wraps raw store errors into the transient kind and leaves every
// other error untouched.
func Classify(entity string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	if IsTransient(err) {
		return Transient(entity, err)
	}
	return err
}

// IsKnown reports whether err already belongs to the taxonomy.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUniqueness) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrReferentialIntegrity) ||
		errors.Is(err, ErrTransient)
}
