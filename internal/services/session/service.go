package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/gameportal/internal/dependencies/clock"
	"github.com/mcoot/gameportal/internal/model"
	"github.com/mcoot/gameportal/internal/storage"
)

var errInvalidToken = errors.New("invalid token")

// Claims are the JWT claims carried by a session token
type Claims struct {
	IdentityID model.IdentityID `json:"identity_id"`
	Remember   bool             `json:"remember"`
	jwt.RegisteredClaims
}

// Token is an issued session credential
type Token struct {
	Value     string
	ExpiresAt time.Time
	Lifetime  time.Duration // ExpiresAt minus issue time
	Remember  bool
}

// Config holds configuration for the session service
type Config struct {
	Secret           []byte
	Issuer           string
	SessionDuration  time.Duration
	RememberDuration time.Duration
}

// DefaultConfig returns default session configuration. Secret must still be set.
func DefaultConfig() Config {
	return Config{
		Issuer:           "gameportal",
		SessionDuration:  24 * time.Hour,
		RememberDuration: 365 * 24 * time.Hour,
	}
}

// Service issues, resolves and ends sessions
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config
}

// New creates a new session Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.RememberDuration == 0 {
		cfg.RememberDuration = defaults.RememberDuration
	}
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
	}
}

// StartSession issues a signed token for the identity
func (s *Service) StartSession(ctx context.Context, identity *model.Identity, remember bool) (*Token, error) {
	now := s.clock.Now()
	duration := s.cfg.SessionDuration
	if remember {
		duration = s.cfg.RememberDuration
	}
	expiresAt := now.Add(duration)

	claims := Claims{
		IdentityID: identity.ID,
		Remember:   remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("session started", "identity_id", identity.ID, "remember", remember)
	return &Token{
		Value:     value,
		ExpiresAt: claims.ExpiresAt.Time,
		Lifetime:  duration,
		Remember:  remember,
	}, nil
}

// CurrentIdentity resolves a token to its identity. Any token that does not
// resolve cleanly yields model.Guest.
func (s *Service) CurrentIdentity(ctx context.Context, token string) model.Identity {
	if token == "" {
		return model.Guest
	}

	claims, err := s.parse(token)
	if err != nil {
		s.logger.Debug("session token rejected", "error", err)
		return model.Guest
	}

	revoked, err := s.storage.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check session revocation", "error", err)
		return model.Guest
	}
	if revoked {
		return model.Guest
	}

	identity, err := s.storage.GetIdentity(ctx, claims.IdentityID)
	if err != nil {
		if !errors.Is(err, model.ErrIdentityNotFound) {
			s.logger.Error("failed to load session identity", "identity_id", claims.IdentityID, "error", err)
		}
		return model.Guest
	}
	return *identity
}

// RequireSession is CurrentIdentity that refuses Guest
func (s *Service) RequireSession(ctx context.Context, token string) (model.Identity, error) {
	identity := s.CurrentIdentity(ctx, token)
	if identity.IsGuest() {
		return model.Guest, model.ErrAuthRequired
	}
	return identity, nil
}

// EndSession revokes the token until its own expiry. Tokens that would not
// validate anyway are ignored.
func (s *Service) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.clock.Now())
	if err := s.storage.RevokeSession(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.logger.Info("session ended", "identity_id", claims.IdentityID)
	return nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.cfg.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" || claims.IdentityID == 0 {
		return nil, errInvalidToken
	}
	return claims, nil
}
