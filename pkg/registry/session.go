package registry

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is the last session handed out by the portal.
type SessionRecord struct {
	Host     string    `json:"host" yaml:"host"`
	Username string    `json:"username" yaml:"username"`
	Token    string    `json:"-" yaml:"-"`
	SavedAt  time.Time `json:"saved_at" yaml:"saved_at"`
}

// SaveSession replaces the stored session.
func (r *Registry) SaveSession(host, username, token string) error {
	if host == "" || token == "" {
		return fmt.Errorf("session needs a host and a token")
	}
	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO sessions (id, host, username, token, saved_at) VALUES (1, ?, ?, ?, ?)",
		host, username, token, time.Now(),
	)
	return err
}

// LastSession returns the stored session, or nil when there is none.
func (r *Registry) LastSession() (*SessionRecord, error) {
	s := &SessionRecord{}
	err := r.db.QueryRow("SELECT host, username, token, saved_at FROM sessions WHERE id = 1").
		Scan(&s.Host, &s.Username, &s.Token, &s.SavedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ClearSession forgets the token but keeps host and username so the next
// login can be prefilled.
func (r *Registry) ClearSession() error {
	_, err := r.db.Exec("UPDATE sessions SET token = '' WHERE id = 1")
	return err
}
