package domain

import "time"

// Admin is an operator allowed to review complaints and change their status.
type Admin struct {
	ID             int64
	Username       string
	PasswordHash   string
	DepartmentID   *int64
	DepartmentName *string
	CreatedAt      time.Time
}
