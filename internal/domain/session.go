package domain

import "time"

// Session is server-side state behind an admin session cookie.
type Session struct {
	ID             string    `json:"id"`
	AdminID        int64     `json:"admin_id"`
	Username       string    `json:"username"`
	DepartmentName *string   `json:"department_name,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
