package store

import (
	"encoding/json"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"
)

// InsertTicket stores one embedded ticket chunk.
func (s *Store) InsertTicket(t model.Ticket) (int64, error) {
	embedding, err := json.Marshal(t.Embedding)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO tickets (chunk, source, embedding) VALUES (?, ?, ?)`,
		t.Chunk, t.Source, string(embedding),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListTickets returns all ticket chunks with their embeddings.
func (s *Store) ListTickets() ([]model.Ticket, error) {
	rows, err := s.db.Query(`SELECT id, chunk, source, embedding FROM tickets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var embedding string
		if err := rows.Scan(&t.ID, &t.Chunk, &t.Source, &embedding); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(embedding), &t.Embedding); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// TicketCount returns the number of ticket chunks in the corpus.
func (s *Store) TicketCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tickets`).Scan(&count)
	return count, err
}
