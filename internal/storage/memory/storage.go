package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/gameportal/internal/dependencies/clock"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	clock clock.Clock

	identities    map[model.IdentityID]*model.Identity
	usernameIndex map[string]model.IdentityID
	scores        map[scoreKey]*model.ScoreRecord
	scoresForGame map[model.GameKind][]scoreKey // insertion order
	revoked       map[string]time.Time

	nextIdentityID model.IdentityID
	nextScoreID    model.ScoreRecordID
}

type scoreKey struct {
	identityID model.IdentityID
	game       model.GameKind
}

// New creates a new in-memory storage instance. Revocation expiry is
// measured against clk.
func New(clk clock.Clock) *Storage {
	return &Storage{
		clock:         clk,
		identities:    make(map[model.IdentityID]*model.Identity),
		usernameIndex: make(map[string]model.IdentityID),
		scores:        make(map[scoreKey]*model.ScoreRecord),
		scoresForGame: make(map[model.GameKind][]scoreKey),
		revoked:       make(map[string]time.Time),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Identity operations

func (s *Storage) CreateIdentity(ctx context.Context, identity *model.Identity, games []model.GameKind) error {
	if err := storage.CheckGames(games); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernameIndex[identity.Username]; ok {
		return model.ErrDuplicateUsername
	}

	s.nextIdentityID++
	identity.ID = s.nextIdentityID

	stored := *identity
	s.identities[stored.ID] = &stored
	s.usernameIndex[stored.Username] = stored.ID

	for _, game := range games {
		s.nextScoreID++
		key := scoreKey{identityID: stored.ID, game: game}
		s.scores[key] = &model.ScoreRecord{
			ID:         s.nextScoreID,
			Game:       game,
			Score:      0,
			IdentityID: stored.ID,
		}
		s.scoresForGame[game] = append(s.scoresForGame[game], key)
	}
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.IdentityID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	result := *identity
	return &result, nil
}

func (s *Storage) GetIdentityByUsername(ctx context.Context, username string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	result := *identity
	return &result, nil
}

// Score operations

func (s *Storage) GetScore(ctx context.Context, id model.IdentityID, game model.GameKind) (*model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.scores[scoreKey{identityID: id, game: game}]
	if !ok {
		return nil, model.ErrScoreNotFound
	}
	result := *record
	return &result, nil
}

func (s *Storage) UpdateScore(ctx context.Context, id model.IdentityID, game model.GameKind, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.scores[scoreKey{identityID: id, game: game}]
	if !ok {
		return model.ErrScoreNotFound
	}
	record.Score = score
	return nil
}

func (s *Storage) ListScores(ctx context.Context, game model.GameKind) ([]model.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.scoresForGame[game]
	entries := make([]model.ScoreEntry, 0, len(keys))
	for _, key := range keys {
		record, ok := s.scores[key]
		if !ok {
			continue
		}
		identity, ok := s.identities[key.identityID]
		if !ok {
			continue
		}
		entries = append(entries, model.ScoreEntry{
			Record:    *record,
			Username:  identity.Username,
			FirstName: identity.FirstName,
		})
	}
	return entries, nil
}

// Session revocation operations

func (s *Storage) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Entries past their token's expiry can never match a valid token again
	now := s.clock.Now()
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}

	if ttl <= 0 {
		return nil
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (s *Storage) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.revoked[tokenID]
	return ok && s.clock.Now().Before(exp), nil
}
