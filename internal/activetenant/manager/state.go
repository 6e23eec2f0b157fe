// Package manager resolves and switches the active tenant of a user session.
package manager

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateResolved      State = "RESOLVED"
	StateSwitching     State = "SWITCHING"
	StateNoTenant      State = "NO_TENANT"
)

// SessionState is owned by one session and is only read or written by the
// manager on behalf of that session.
type SessionState struct {
	SessionID  string       `json:"sessionId"`
	UserID     int64        `json:"userId"`
	State      State        `json:"state"`
	TenantID   snowflake.ID `json:"tenantId,omitempty"`
	TenantName string       `json:"tenantName,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func newSession(sessionID string, userID int64) *SessionState {
	return &SessionState{SessionID: sessionID, UserID: userID, State: StateUninitialized}
}

// IsTenantActive reports whether a tenant is resolved for the session.
func (s *SessionState) IsTenantActive() bool {
	return s != nil && s.State == StateResolved && s.TenantID != 0
}

func (s *SessionState) resolve(tenantID snowflake.ID, tenantName string, now time.Time) {
	s.State = StateResolved
	s.TenantID = tenantID
	s.TenantName = tenantName
	s.UpdatedAt = now
}

func (s *SessionState) clear(now time.Time) {
	s.State = StateNoTenant
	s.TenantID = 0
	s.TenantName = ""
	s.UpdatedAt = now
}
