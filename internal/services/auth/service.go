package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameportal/internal/dependencies/clock"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

// Field length limits, counted in characters
const (
	MinUsernameLength  = 4
	MaxUsernameLength  = 15
	MinPasswordLength  = 8
	MaxPasswordLength  = 30
	MaxFirstNameLength = 30

	// bcrypt refuses inputs longer than this many bytes
	maxPasswordBytes = 72
)

// Service owns identity creation and credential verification
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	bcryptCost int
	// dummyHash is compared against when the username is unknown
	dummyHash []byte
}

// Config holds configuration for the auth service
type Config struct {
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BcryptCost)
	if err != nil {
		// Only possible with a cost outside bcrypt's range
		logger.Error("failed to generate dummy hash", "error", err)
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummy,
	}
}

// Register validates the fields, hashes the password and creates the identity
// together with a zero score record for every game. Surrounding whitespace
// is stripped from the username and first name; the password is kept verbatim.
func (s *Service) Register(ctx context.Context, username, password, firstName string) (*model.Identity, error) {
	username = strings.TrimSpace(username)
	firstName = strings.TrimSpace(firstName)
	if err := ValidateRegistration(username, password, firstName); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    firstName,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.CreateIdentity(ctx, identity, model.AllGames()); err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			s.logger.Info("registration rejected", "username", username, "reason", "duplicate_username")
		}
		return nil, err
	}

	s.logger.Info("identity registered", "identity_id", identity.ID, "username", username)
	return identity, nil
}

// Authenticate checks a username and password. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.Identity, error) {
	username = strings.TrimSpace(username)
	identity, err := s.storage.GetIdentityByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			// Keep timing close to the wrong-password path
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.logger.Info("authentication failed", "username", username, "reason", "unknown_username")
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("authentication failed", "username", username, "reason", "wrong_password")
		return nil, model.ErrInvalidCredentials
	}

	return identity, nil
}

// ValidateRegistration checks field lengths and returns the first violation
func ValidateRegistration(username, password, firstName string) error {
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return model.NewValidationError("username", "must be between 4 and 15 characters")
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return model.NewValidationError("password", "must be between 8 and 30 characters")
	}
	if len(password) > maxPasswordBytes {
		return model.NewValidationError("password", "must be at most 72 bytes")
	}
	if n := utf8.RuneCountInString(firstName); n == 0 || n > MaxFirstNameLength {
		return model.NewValidationError("first_name", "must be between 1 and 30 characters")
	}
	return nil
}
