package store

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertTicket inserts a ticket and returns its ID.
func (s *Store) InsertTicket(t *Ticket) (int64, error) {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	res, err := s.db.Exec(`
		INSERT INTO tickets (epic_id, title, body, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.EpicID, t.Title, t.Body, t.Status, t.Priority, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ticket: %w", err)
	}
	return res.LastInsertId()
}

// InsertEpic inserts an epic and returns its ID.
func (s *Store) InsertEpic(e *Epic) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(`
		INSERT INTO epics (title, status, created_at, closed_at)
		VALUES (?, ?, ?, ?)`,
		e.Title, e.Status, e.CreatedAt, e.ClosedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert epic: %w", err)
	}
	return res.LastInsertId()
}

// InsertComment attaches a comment to a ticket.
func (s *Store) InsertComment(c *Comment) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(`
		INSERT INTO comments (ticket_id, author, body, created_at)
		VALUES (?, ?, ?, ?)`,
		c.TicketID, c.Author, c.Body, c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	return res.LastInsertId()
}

// ListTickets returns all tickets ordered by priority then recency.
func (s *Store) ListTickets() ([]*Ticket, error) {
	rows, err := s.db.Query(`
		SELECT id, epic_id, title, body, status, priority, created_at, updated_at
		FROM tickets
		ORDER BY priority ASC, updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		t := &Ticket{}
		var epicID sql.NullInt64
		if err := rows.Scan(&t.ID, &epicID, &t.Title, &t.Body, &t.Status,
			&t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		if epicID.Valid {
			t.EpicID = &epicID.Int64
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// CountTickets returns the total number of tickets.
func (s *Store) CountTickets() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tickets").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return n, nil
}
