package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "Pending"
	ComplaintStatusInProgress ComplaintStatus = "In Progress"
	ComplaintStatusResolved   ComplaintStatus = "Resolved"
)

// ComplaintStatuses lists every accepted status in display order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
}

// Valid reports whether s is one of the closed set of statuses.
func (s ComplaintStatus) Valid() bool {
	for _, candidate := range ComplaintStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Complaint is a grievance filed by a citizen. TicketNumber is immutable once issued.
type Complaint struct {
	ID           int64
	TicketNumber string
	UserID       int64
	DepartmentID int64
	Description  string
	Address      string
	Status       ComplaintStatus
	ImagePath    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ComplaintView is a complaint joined with its department and submitter.
type ComplaintView struct {
	Complaint
	DepartmentName string
	UserName       string
	UserEmail      string
}
