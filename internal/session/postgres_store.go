package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Keys of the session_entries table.
const (
	keyToken        = "auth_token"
	keyUserID       = "user_id"
	keyEmail        = "email"
	keyName         = "name"
	keyProfileImage = "profile_image"
)

// Schema creates the session_entries table.
const Schema = `
	CREATE TABLE IF NOT EXISTS session_entries (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (namespace, key)
	);
`

// postgresStore implements Store as key/value rows scoped by a namespace.
type postgresStore struct {
	pool      *pgxpool.Pool
	namespace string
	logger    zerolog.Logger
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(pool *pgxpool.Pool, namespace string, logger zerolog.Logger) Store {
	return &postgresStore{
		pool:      pool,
		namespace: namespace,
		logger:    logger.With().Str("component", "session-postgres-store").Str("namespace", namespace).Logger(),
	}
}

// EnsureSchema creates the session table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}
	return nil
}

// Save upserts the identity fields in a single transaction.
func (s *postgresStore) Save(ctx context.Context, token, userID, email, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err := s.upsert(ctx, tx, map[string]string{
		keyToken:  token,
		keyUserID: userID,
		keyEmail:  email,
		keyName:   name,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit session")
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug().Str("user_id", userID).Msg("session saved")
	return nil
}

// Load reads every key of the namespace.
func (s *postgresStore) Load(ctx context.Context) (Session, error) {
	query := `
		SELECT key, value
		FROM session_entries
		WHERE namespace = $1
	`

	rows, err := s.pool.Query(ctx, query, s.namespace)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query session")
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	var current Session
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, fmt.Errorf("failed to scan session entry: %w", err)
		}

		switch key {
		case keyToken:
			current.Token = value
		case keyUserID:
			current.UserID = value
		case keyEmail:
			current.Email = value
		case keyName:
			current.Name = value
		case keyProfileImage:
			current.ProfileImage = value
		}
	}

	if err := rows.Err(); err != nil {
		return Session{}, fmt.Errorf("error iterating session entries: %w", err)
	}

	return current, nil
}

// SaveProfileImage upserts the profile image reference.
func (s *postgresStore) SaveProfileImage(ctx context.Context, ref string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.upsert(ctx, tx, map[string]string{keyProfileImage: ref}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to save profile image: %w", err)
	}
	return nil
}

// IsLoggedIn is true iff a non-empty token row exists.
func (s *postgresStore) IsLoggedIn(ctx context.Context) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM session_entries
			WHERE namespace = $1 AND key = $2 AND value <> ''
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, s.namespace, keyToken).Scan(&exists); err != nil {
		s.logger.Error().Err(err).Msg("failed to check session")
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return exists, nil
}

// Clear deletes every row of the namespace.
func (s *postgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM session_entries WHERE namespace = $1`, s.namespace); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear session")
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.logger.Debug().Msg("session cleared")
	return nil
}

func (s *postgresStore) upsert(ctx context.Context, tx pgx.Tx, entries map[string]string) error {
	query := `
		INSERT INTO session_entries (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	batch := &pgx.Batch{}
	keys := make([]string, 0, len(entries))
	for key, value := range entries {
		batch.Queue(query, s.namespace, key, value)
		keys = append(keys, key)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, key := range keys {
		if _, err := results.Exec(); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to upsert session entry")
			return fmt.Errorf("failed to save session entry %s: %w", key, err)
		}
	}

	return nil
}
