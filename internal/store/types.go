package store

import "time"

// Ticket is a single unit of tracked work.
type Ticket struct {
	ID        int64
	EpicID    *int64
	Title     string
	Body      string
	Status    string // "open", "in_review", "closed"
	Priority  int    // 0 (urgent) .. 4 (backlog)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Epic groups related tickets.
type Epic struct {
	ID        int64
	Title     string
	Status    string
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Comment is a note attached to a ticket.
type Comment struct {
	ID        int64
	TicketID  int64
	Author    string
	Body      string
	CreatedAt time.Time
}
