package service

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// TicketPrefix starts every complaint ticket number.
const TicketPrefix = "TKT-"

var ticketPattern = regexp.MustCompile(`^TKT-[0-9A-F]{8}$`)

// TicketSource hands out ticket numbers for new complaints.
type TicketSource interface {
	Next() string
}

// TicketAllocator derives ticket numbers from random UUIDs. It does not consult the
// store; the complaints.ticket_number unique index catches the rare collision.
type TicketAllocator struct {
	newID func() string
}

// NewTicketAllocator returns an allocator backed by uuid.NewString.
func NewTicketAllocator() *TicketAllocator {
	return &TicketAllocator{newID: uuid.NewString}
}

// Next returns "TKT-" followed by the first 8 hex digits of a fresh UUID, upper-cased.
func (a *TicketAllocator) Next() string {
	return TicketPrefix + strings.ToUpper(strings.ReplaceAll(a.newID(), "-", "")[:8])
}

// ValidTicketNumber reports whether s has the TKT-XXXXXXXX shape.
func ValidTicketNumber(s string) bool {
	return ticketPattern.MatchString(s)
}
