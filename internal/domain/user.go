package domain

import "time"

// User is a citizen who submitted at least one complaint. Email is the identity key.
type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
