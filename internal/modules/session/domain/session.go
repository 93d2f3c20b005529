package domain

import (
	"strings"
	"time"
)

type Source string

const (
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

// Session is the authenticated patient session. Only file sessions are
// persisted; ExpiresAt is optional.
type Session struct {
	Token     string     `json:"token"`
	Source    Source     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// StripBearer accepts tokens pasted with or without the "Bearer " prefix.
func StripBearer(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
