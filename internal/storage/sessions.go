package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"accounting/internal/models"
)

// CreateSession stores a session binding. Expiry and activity are kept as
// unix seconds so comparisons do not depend on time zone formatting.
func (db *DB) CreateSession(ctx context.Context, s models.Session) error {
	lastActivity := s.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, s.ExpiresAt.Unix(), lastActivity.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the live session for token together with its user.
// Expired or unknown tokens yield models.ErrNotFound.
func (db *DB) GetSession(ctx context.Context, token string) (*models.Session, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT s.token, u.id, u.username, s.expires_at, s.last_activity
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, time.Now().Unix())

	var (
		s                       models.Session
		expiresAt, lastActivity int64
	)
	if err := row.Scan(&s.Token, &s.UserID, &s.Username, &expiresAt, &lastActivity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.ExpiresAt = time.Unix(expiresAt, 0)
	s.LastActivity = time.Unix(lastActivity, 0)
	return &s, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().Unix(), newExpiresAt.Unix(), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions and reports how many.
func (db *DB) CleanExpiredSessions(ctx context.Context) (int, error) {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
