package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameportal/internal/dependencies/mocks"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	logs    *bytes.Buffer
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = memory.New(s.clock)
	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(s.logs, nil))
	s.service = New(s.storage, s.clock, Config{BcryptCost: bcrypt.MinCost}, logger)
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	identity, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.NotZero(identity.ID)
	s.Equal("alice", identity.Username)
	s.Equal("Alice", identity.FirstName)
	s.Equal(s.clock.Now(), identity.CreatedAt)
}

func (s *ServiceSuite) TestRegisterHashesPassword() {
	identity, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	stored, err := s.storage.GetIdentityByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(identity.ID, stored.ID)
	s.NotEqual("password123", stored.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func (s *ServiceSuite) TestRegisterSeedsZeroScoreForEveryGame() {
	identity, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	for _, game := range model.AllGames() {
		record, err := s.storage.GetScore(s.ctx, identity.ID, game)
		s.Require().NoError(err, game)
		s.Equal(0, record.Score)
	}
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.Register(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "otherpass99", "Alicia")
	s.ErrorIs(err, model.ErrDuplicateUsername)

	stored, err := s.storage.GetIdentityByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alice", stored.FirstName)
}

func (s *ServiceSuite) TestRegisterValidation() {
	cases := []struct {
		name      string
		username  string
		password  string
		firstName string
		field     string
	}{
		{"username too short", "bob", "password123", "Bob", "username"},
		{"username too long", "abcdefghijklmnop", "password123", "Bob", "username"},
		{"password too short", "bobby", "short", "Bob", "password"},
		{"password too long", "bobby", strings.Repeat("p", 31), "Bob", "password"},
		{"password over bcrypt limit", "bobby", strings.Repeat("€", 25), "Bob", "password"},
		{"first name empty", "bobby", "password123", "", "first_name"},
		{"first name too long", "bobby", "password123", strings.Repeat("b", 31), "first_name"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Register(s.ctx, tc.username, tc.password, tc.firstName)
			s.ErrorIs(err, model.ErrValidation)

			var verr *model.ValidationError
			s.Require().True(errors.As(err, &verr))
			s.Equal(tc.field, verr.Field)
		})
	}
}

func (s *ServiceSuite) TestRegisterBoundaryLengthsAccepted() {
	_, err := s.service.Register(s.ctx, "abcd", "12345678", strings.Repeat("f", 30))
	s.NoError(err)

	_, err = s.service.Register(s.ctx, strings.Repeat("u", 15), strings.Repeat("p", 30), "F")
	s.NoError(err)
}

func (s *ServiceSuite) TestRegisterCountsCharactersNotBytes() {
	// Four characters, eight bytes
	_, err := s.service.Register(s.ctx, "éééé", "password123", "Zoë")
	s.NoError(err)
}

// Authenticate tests

func (s *ServiceSuite) TestAuthenticateSucceeds() {
	registered, _ := s.service.Register(s.ctx, "alice", "password123", "Alice")

	identity, err := s.service.Authenticate(s.ctx, "alice", "password123")
	s.Require().NoError(err)
	s.Equal(registered.ID, identity.ID)
}

func (s *ServiceSuite) TestAuthenticateWrongPassword() {
	_, _ = s.service.Register(s.ctx, "alice", "password123", "Alice")

	_, err := s.service.Authenticate(s.ctx, "alice", "wrongpassword")
	s.ErrorIs(err, model.ErrInvalidCredentials)
	s.Contains(s.logs.String(), `"reason":"wrong_password"`)
}

func (s *ServiceSuite) TestAuthenticateUnknownUsername() {
	_, err := s.service.Authenticate(s.ctx, "nobody", "password123")
	s.ErrorIs(err, model.ErrInvalidCredentials)
	s.Contains(s.logs.String(), `"reason":"unknown_username"`)
}

func (s *ServiceSuite) TestAuthenticateIsCaseSensitive() {
	_, _ = s.service.Register(s.ctx, "alice", "password123", "Alice")

	_, err := s.service.Authenticate(s.ctx, "ALICE", "password123")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestUsernameWhitespaceIsTrimmed() {
	identity, err := s.service.Register(s.ctx, "  alice\t", "password123", " Alice ")
	s.Require().NoError(err)
	s.Equal("alice", identity.Username)
	s.Equal("Alice", identity.FirstName)

	stored, err := s.storage.GetIdentityByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(identity.ID, stored.ID)

	authed, err := s.service.Authenticate(s.ctx, " alice ", "password123")
	s.Require().NoError(err)
	s.Equal(identity.ID, authed.ID)

	_, err = s.service.Register(s.ctx, "alice ", "password123", "Alice")
	s.ErrorIs(err, model.ErrDuplicateUsername)
}

func (s *ServiceSuite) TestPaddedShortUsernameIsRejected() {
	_, err := s.service.Register(s.ctx, "  abc  ", "password123", "Abc")

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("username", verr.Field)
}
