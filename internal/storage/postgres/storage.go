package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/gameportal/internal/dependencies/clock"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

const uniqueViolation = "23505"

// queryRunner is satisfied by both the pool and an open transaction
type queryRunner interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

type txFn func(queryRunner) error

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	pool  *pgxpool.Pool
	cfg   Config
	clock clock.Clock
}

// New connects to PostgreSQL and ensures the schema exists. Revocation
// expiry is measured against clk.
func New(ctx context.Context, cfg Config, clk clock.Clock) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, t := range tables {
		if _, err := pool.Exec(ctx, t); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &Storage{pool: pool, cfg: cfg, clock: clk}, nil
}

// Close releases every pooled connection
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) withTransaction(ctx context.Context, fn txFn) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// uniqueViolationOf returns the constraint a unique violation tripped, or ""
func uniqueViolationOf(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

func createIdentityError(err error) error {
	switch uniqueViolationOf(err) {
	case usernameConstraint:
		return model.ErrDuplicateUsername
	case gameScoreConstraint:
		return fmt.Errorf("create identity: %w", storage.ErrDuplicateGame)
	default:
		return fmt.Errorf("create identity: %w", err)
	}
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity, games []model.GameKind) error {
	if err := storage.CheckGames(games); err != nil {
		return err
	}

	var id model.IdentityID
	err := s.withTransaction(ctx, func(q queryRunner) error {
		err := q.QueryRow(ctx,
			`INSERT INTO identity (username, password_hash, first_name, created_at)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			identity.Username, identity.PasswordHash, identity.FirstName, identity.CreatedAt,
		).Scan(&id)
		if err != nil {
			return err
		}

		for _, game := range games {
			_, err := q.Exec(ctx,
				`INSERT INTO score_record (game_kind, score, identity_id) VALUES ($1, 0, $2)`,
				string(game), id,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return createIdentityError(err)
	}

	identity.ID = id
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	return s.scanIdentity(s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, first_name, created_at FROM identity WHERE id = $1`, id))
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	return s.scanIdentity(s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, first_name, created_at FROM identity WHERE username = $1`, username))
}

func (s *Storage) scanIdentity(row pgx.Row) (*model.Identity, error) {
	var identity model.Identity
	err := row.Scan(&identity.ID, &identity.Username, &identity.PasswordHash, &identity.FirstName, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &identity, nil
}

// Score operations

func (s *Storage) GetScore(ctx context.Context, id model.IdentityID, game model.GameKind) (*model.ScoreRecord, error) {
	var record model.ScoreRecord
	var gameKind string
	err := s.pool.QueryRow(ctx,
		`SELECT id, game_kind, score, identity_id FROM score_record WHERE identity_id = $1 AND game_kind = $2`,
		id, string(game),
	).Scan(&record.ID, &gameKind, &record.Score, &record.IdentityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrScoreNotFound
		}
		return nil, fmt.Errorf("get score: %w", err)
	}
	record.Game = model.GameKind(gameKind)
	return &record, nil
}

func (s *Storage) UpdateScore(ctx context.Context, id model.IdentityID, game model.GameKind, score int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE score_record SET score = $1 WHERE identity_id = $2 AND game_kind = $3`,
		score, id, string(game),
	)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrScoreNotFound
	}
	return nil
}

func (s *Storage) ListScores(ctx context.Context, game model.GameKind) ([]model.ScoreEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.game_kind, s.score, s.identity_id, i.username, i.first_name
		 FROM score_record s JOIN identity i ON i.id = s.identity_id
		 WHERE s.game_kind = $1
		 ORDER BY s.id ASC`,
		string(game),
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	entries := []model.ScoreEntry{}
	for rows.Next() {
		var entry model.ScoreEntry
		var gameKind string
		err := rows.Scan(
			&entry.Record.ID, &gameKind, &entry.Record.Score, &entry.Record.IdentityID,
			&entry.Username, &entry.FirstName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		entry.Record.Game = model.GameKind(gameKind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return entries, nil
}

// Session revocation operations

func (s *Storage) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO revoked_session (token_id, expires_at) VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, s.clock.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *Storage) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_session WHERE token_id = $1 AND expires_at > $2)`,
		tokenID, s.clock.Now(),
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return revoked, nil
}
