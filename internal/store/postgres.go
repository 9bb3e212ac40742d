package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/interview-coach/internal/types"
)

// Postgres implements SessionStore and UserStore on a pgx connection pool.
// Each session is stored as a jsonb aggregate with the version in its own
// column so Save can enforce compare-and-swap without parsing the document.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Load returns the session with the given ID, or ErrNotFound.
func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (*types.InterviewSession, error) {
	var doc []byte
	var version int64
	err := p.pool.QueryRow(ctx,
		`SELECT doc, version FROM interview_sessions WHERE id = $1`,
		id,
	).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	session, err := decodeSession(doc)
	if err != nil {
		return nil, err
	}
	session.Version = version
	return session, nil
}

// Save persists the session with a compare-and-swap on version. Version 0
// inserts; any other version updates the matching row.
func (p *Postgres) Save(ctx context.Context, session *types.InterviewSession) error {
	doc, err := encodeSession(session)
	if err != nil {
		return err
	}

	if session.Version == 0 {
		tag, err := p.pool.Exec(ctx,
			`INSERT INTO interview_sessions (id, owner_id, status, started_at, completed_at, doc, version)
			 VALUES ($1, $2, $3, $4, $5, $6, 1)
			 ON CONFLICT (id) DO NOTHING`,
			session.ID, session.OwnerID, session.Status, session.StartedAt, session.CompletedAt, doc,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session %s: %w", session.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		session.Version = 1
		return nil
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE interview_sessions
		 SET owner_id = $2, status = $3, started_at = $4, completed_at = $5, doc = $6, version = version + 1
		 WHERE id = $1 AND version = $7`,
		session.ID, session.OwnerID, session.Status, session.StartedAt, session.CompletedAt, doc, session.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", session.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	session.Version++
	return nil
}

// FindByOwner returns all sessions owned by ownerID, newest first.
func (p *Postgres) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.InterviewSession, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT doc, version FROM interview_sessions
		 WHERE owner_id = $1
		 ORDER BY started_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

// FindCompletedByOwner returns completed sessions owned by ownerID, newest
// completion first.
func (p *Postgres) FindCompletedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.InterviewSession, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT doc, version FROM interview_sessions
		 WHERE owner_id = $1 AND status = $2
		 ORDER BY completed_at DESC NULLS LAST`,
		ownerID, types.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return collectSessions(rows)
}

// CreateUser stores a new account, or returns ErrEmailTaken.
func (p *Postgres) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error) {
	user := &types.User{}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, email, created_at`,
		name, strings.ToLower(email), passwordHash,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns the account with the given ID, or ErrNotFound.
func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user := &types.User{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail returns the account and password hash for the email, or
// ErrNotFound.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	record := &UserRecord{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at, password_hash FROM users WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&record.User.ID, &record.User.Name, &record.User.Email, &record.User.CreatedAt, &record.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return record, nil
}

func encodeSession(session *types.InterviewSession) ([]byte, error) {
	doc, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}
	return doc, nil
}

func decodeSession(doc []byte) (*types.InterviewSession, error) {
	var session types.InterviewSession
	if err := json.Unmarshal(doc, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session document: %w", err)
	}
	return &session, nil
}

func collectSessions(rows pgx.Rows) ([]*types.InterviewSession, error) {
	var out []*types.InterviewSession
	for rows.Next() {
		var doc []byte
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		session, err := decodeSession(doc)
		if err != nil {
			return nil, err
		}
		session.Version = version
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return out, nil
}
