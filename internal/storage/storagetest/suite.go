// Package storagetest holds the behavioural suite every storage backend must pass.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

// Suite exercises the storage.Storage contract. Backend suites embed it and
// assign Store (and Ctx) in their own SetupTest.
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) createIdentity(username string) *model.Identity {
	identity := &model.Identity{
		Username:     username,
		PasswordHash: "hash-" + username,
		FirstName:    "First " + username,
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	err := s.Store.CreateIdentity(s.Ctx, identity, model.AllGames())
	s.Require().NoError(err)
	return identity
}

// Identity tests

func (s *Suite) TestCreateIdentityAssignsID() {
	identity := s.createIdentity("alice")
	s.NotZero(identity.ID)

	retrieved, err := s.Store.GetIdentity(s.Ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)
	s.Equal("hash-alice", retrieved.PasswordHash)
	s.Equal("First alice", retrieved.FirstName)
}

func (s *Suite) TestCreateIdentityAssignsDistinctIDs() {
	a := s.createIdentity("alice")
	b := s.createIdentity("bobby")
	s.NotEqual(a.ID, b.ID)
}

func (s *Suite) TestCreateIdentitySeedsZeroScores() {
	identity := s.createIdentity("alice")

	for _, game := range model.AllGames() {
		record, err := s.Store.GetScore(s.Ctx, identity.ID, game)
		s.Require().NoError(err, game)
		s.Equal(0, record.Score)
		s.Equal(game, record.Game)
		s.Equal(identity.ID, record.IdentityID)
		s.NotZero(record.ID)
	}
}

func (s *Suite) TestCreateIdentityDuplicateUsername() {
	first := s.createIdentity("alice")

	dup := &model.Identity{Username: "alice", PasswordHash: "other", FirstName: "Other"}
	err := s.Store.CreateIdentity(s.Ctx, dup, model.AllGames())
	s.ErrorIs(err, model.ErrDuplicateUsername)

	// First registration untouched
	retrieved, err := s.Store.GetIdentityByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(first.ID, retrieved.ID)
	s.Equal("hash-alice", retrieved.PasswordHash)

	// No extra score records were created
	entries, err := s.Store.ListScores(s.Ctx, model.GameSnake)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *Suite) TestCreateIdentityDuplicateGameLeavesNothing() {
	identity := &model.Identity{Username: "alice", PasswordHash: "h", FirstName: "Alice"}
	err := s.Store.CreateIdentity(s.Ctx, identity, []model.GameKind{model.GameSnake, model.GameSnake})
	s.ErrorIs(err, storage.ErrDuplicateGame)
	s.NotErrorIs(err, model.ErrDuplicateUsername)

	_, err = s.Store.GetIdentityByUsername(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrIdentityNotFound)

	for _, game := range model.AllGames() {
		entries, err := s.Store.ListScores(s.Ctx, game)
		s.Require().NoError(err)
		s.Empty(entries, game)
	}

	// The username is still free
	s.createIdentity("alice")
}

func (s *Suite) TestCreateIdentityConcurrentSameUsername() {
	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity := &model.Identity{Username: "racer", PasswordHash: "h", FirstName: "R"}
			errs[i] = s.Store.CreateIdentity(s.Ctx, identity, model.AllGames())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrDuplicateUsername)
		}
	}
	s.Equal(1, succeeded)

	for _, game := range model.AllGames() {
		entries, err := s.Store.ListScores(s.Ctx, game)
		s.Require().NoError(err)
		s.Len(entries, 1, game)
	}
}

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.Store.GetIdentity(s.Ctx, 424242)
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestGetIdentityByUsernameNotFound() {
	_, err := s.Store.GetIdentityByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

// Score tests

func (s *Suite) TestGetScoreNotFound() {
	_, err := s.Store.GetScore(s.Ctx, 424242, model.GameSnake)
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *Suite) TestUpdateScoreOverwrites() {
	identity := s.createIdentity("alice")

	s.Require().NoError(s.Store.UpdateScore(s.Ctx, identity.ID, model.GameTicTacToe, 50))
	s.Require().NoError(s.Store.UpdateScore(s.Ctx, identity.ID, model.GameTicTacToe, 10))

	record, err := s.Store.GetScore(s.Ctx, identity.ID, model.GameTicTacToe)
	s.Require().NoError(err)
	s.Equal(10, record.Score)

	// Other games untouched
	other, err := s.Store.GetScore(s.Ctx, identity.ID, model.GameSnake)
	s.Require().NoError(err)
	s.Equal(0, other.Score)
}

func (s *Suite) TestUpdateScoreNotFound() {
	err := s.Store.UpdateScore(s.Ctx, 424242, model.GameSnake, 10)
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *Suite) TestListScoresInsertionOrder() {
	a := s.createIdentity("alice")
	b := s.createIdentity("bobby")
	c := s.createIdentity("carol")

	s.Require().NoError(s.Store.UpdateScore(s.Ctx, b.ID, model.GameSnake, 30))

	entries, err := s.Store.ListScores(s.Ctx, model.GameSnake)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)

	s.Equal(a.ID, entries[0].Record.IdentityID)
	s.Equal(b.ID, entries[1].Record.IdentityID)
	s.Equal(c.ID, entries[2].Record.IdentityID)
	s.Equal("bobby", entries[1].Username)
	s.Equal("First bobby", entries[1].FirstName)
	s.Equal(30, entries[1].Record.Score)
	s.Less(entries[0].Record.ID, entries[1].Record.ID)
	s.Less(entries[1].Record.ID, entries[2].Record.ID)
}

func (s *Suite) TestListScoresEmpty() {
	entries, err := s.Store.ListScores(s.Ctx, model.GameBrickBreaker)
	s.Require().NoError(err)
	s.Empty(entries)
}

// Session revocation tests

func (s *Suite) TestRevokeSession() {
	revoked, err := s.Store.IsSessionRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.False(revoked)

	err = s.Store.RevokeSession(s.Ctx, "token-1", time.Hour)
	s.Require().NoError(err)

	revoked, err = s.Store.IsSessionRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *Suite) TestRevokeSessionTwice() {
	s.Require().NoError(s.Store.RevokeSession(s.Ctx, "token-1", time.Hour))
	s.Require().NoError(s.Store.RevokeSession(s.Ctx, "token-1", time.Hour))

	revoked, err := s.Store.IsSessionRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)
}
