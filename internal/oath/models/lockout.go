package models

import (
	"strings"
	"time"
)

// Lockout tracks failed sign-ins for one nickname from one client address.
type Lockout struct {
	Identifier    string
	FailureCount  int
	LockedUntil   *time.Time
	LastFailureAt time.Time
}

// LockoutKey scopes failures to nickname and client address so one client
// cannot lock another out.
func LockoutKey(nickname, clientIP string) string {
	return strings.ToLower(strings.TrimSpace(nickname)) + "|" + clientIP
}

func (l *Lockout) IsLockedAt(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// RetryAfter is the remaining lock duration, zero when unlocked.
func (l *Lockout) RetryAfter(now time.Time) time.Duration {
	if !l.IsLockedAt(now) {
		return 0
	}
	return l.LockedUntil.Sub(now)
}
