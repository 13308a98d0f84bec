package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/genreshelf/genreshelf/internal/models"
	"github.com/genreshelf/genreshelf/internal/shared"
	"golang.org/x/oauth2"
)

// SessionRepository persists OAuth sessions for [models.Session].
//
// Backed by SQLite. With the default ":memory:" database the connection
// pool must be limited to a single connection, since each SQLite
// connection to ":memory:" opens a separate database.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with generated ID and sequence.
// The state value must be unique across live sessions.
func (r *SessionRepository) Create(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	session.ID = shared.GenerateID()
	session.Sequence = sequence
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (id, sequence, state, access_token, refresh_token, token_expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		session.ID, session.Sequence, session.State,
		session.AccessToken, session.RefreshToken, nullableTime(session.TokenExpiry),
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// GetByState retrieves a session by its state token, excluding soft-deleted sessions
func (r *SessionRepository) GetByState(state string) (*models.Session, error) {
	query := `
		SELECT id, sequence, state, access_token, refresh_token, token_expiry, created_at, updated_at, deleted_at
		FROM sessions
		WHERE state = ? AND deleted_at IS NULL
	`

	session, err := scanSession(r.db.QueryRow(query, state))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found for state: %s", state)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// UpdateToken stores the exchanged token on the session identified by state
func (r *SessionRepository) UpdateToken(state string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	now := time.Now()

	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, token_expiry = ?, updated_at = ?
		WHERE state = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, token.AccessToken, token.RefreshToken, nullableTime(token.Expiry), now, state)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted for state: %s", state)
	}

	return nil
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sessions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all live sessions in sequence order
func (r *SessionRepository) List() ([]*models.Session, error) {
	query := `
		SELECT id, sequence, state, access_token, refresh_token, token_expiry, created_at, updated_at, deleted_at
		FROM sessions
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		session     models.Session
		tokenExpiry sql.NullTime
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&session.ID, &session.Sequence, &session.State,
		&session.AccessToken, &session.RefreshToken, &tokenExpiry,
		&session.CreatedAt, &session.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if tokenExpiry.Valid {
		session.TokenExpiry = tokenExpiry.Time
	}
	if deletedAt.Valid {
		session.DeletedAt = &deletedAt.Time
	}

	return &session, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
