package dto

import "time"

type LoginInput struct {
	Token string
	// ExpiresAt is RFC 3339; empty means the session does not expire locally.
	ExpiresAt string
}

type StatusOutput struct {
	LoggedIn  bool
	Source    string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Expired   bool
}
