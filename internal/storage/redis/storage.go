package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity, games []model.GameKind) error {
	if err := storage.CheckGames(games); err != nil {
		return err
	}

	idxKey := usernameIndexKey(identity.Username)

	// WATCH the username index so a concurrent registration of the same name aborts EXEC
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, idxKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrDuplicateUsername
		}

		id, err := tx.Incr(ctx, identitySeqKey()).Result()
		if err != nil {
			return err
		}
		lastScoreID, err := tx.IncrBy(ctx, scoreSeqKey(), int64(len(games))).Result()
		if err != nil {
			return err
		}
		firstScoreID := lastScoreID - int64(len(games)) + 1

		created := *identity
		created.ID = model.IdentityID(id)
		data, err := json.Marshal(created)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, identityKey(created.ID), data, 0)
			pipe.Set(ctx, idxKey, id, 0)
			for i, game := range games {
				key := scoreKey(created.ID, game)
				pipe.HSet(ctx, key,
					"id", firstScoreID+int64(i),
					"game", string(game),
					"score", 0,
					"identity_id", id,
				)
				pipe.RPush(ctx, scoresForGameIndexKey(game), key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		identity.ID = created.ID
		return nil
	}, idxKey)

	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrDuplicateUsername
	}
	return err
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	data, err := s.client.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	// Look up identity ID from username index
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	return s.GetIdentity(ctx, model.IdentityID(id))
}

// Score operations

func (s *Storage) GetScore(ctx context.Context, id model.IdentityID, game model.GameKind) (*model.ScoreRecord, error) {
	fields, err := s.client.HGetAll(ctx, scoreKey(id, game)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrScoreNotFound
	}
	return scoreFromHash(fields)
}

func (s *Storage) UpdateScore(ctx context.Context, id model.IdentityID, game model.GameKind, score int) error {
	key := scoreKey(id, game)

	// Records are never deleted, so an existence check guards against creating a partial hash
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrScoreNotFound
	}

	return s.client.HSet(ctx, key, "score", score).Err()
}

func (s *Storage) ListScores(ctx context.Context, game model.GameKind) ([]model.ScoreEntry, error) {
	keys, err := s.client.LRange(ctx, scoresForGameIndexKey(game), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []model.ScoreEntry{}, nil
	}

	// Fetch every record hash in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	records := make([]*model.ScoreRecord, 0, len(keys))
	identityKeys := make([]string, 0, len(keys))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		record, err := scoreFromHash(fields)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		identityKeys = append(identityKeys, identityKey(record.IdentityID))
	}
	if len(records) == 0 {
		return []model.ScoreEntry{}, nil
	}

	// Join with identities using MGET
	values, err := s.client.MGet(ctx, identityKeys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.ScoreEntry, 0, len(records))
	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue // orphaned record
		}
		var identity model.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			return nil, err
		}
		entries = append(entries, model.ScoreEntry{
			Record:    *records[i],
			Username:  identity.Username,
			FirstName: identity.FirstName,
		})
	}
	return entries, nil
}

// Session revocation operations

func (s *Storage) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token can no longer validate, nothing to remember
		return nil
	}
	return s.client.Set(ctx, revokedSessionKey(tokenID), "1", ttl).Err()
}

func (s *Storage) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := s.client.Exists(ctx, revokedSessionKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func scoreFromHash(fields map[string]string) (*model.ScoreRecord, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("score record id: %w", err)
	}
	score, err := strconv.Atoi(fields["score"])
	if err != nil {
		return nil, fmt.Errorf("score record score: %w", err)
	}
	identityID, err := strconv.ParseInt(fields["identity_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("score record identity_id: %w", err)
	}
	return &model.ScoreRecord{
		ID:         model.ScoreRecordID(id),
		Game:       model.GameKind(fields["game"]),
		Score:      score,
		IdentityID: model.IdentityID(identityID),
	}, nil
}
