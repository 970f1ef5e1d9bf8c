// Package users manages API users and their bearer tokens. Only a SHA-256
// hash of each token is stored.
package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	goerrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
)

const tokenBytes = 32

type Service struct {
	store storage.Provider
	now   func() time.Time
}

func New(store storage.Provider) *Service {
	return &Service{store: store, now: time.Now}
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create adds a user and returns it with its plaintext token, which is not
// recoverable afterwards.
func (s *Service) Create(ctx context.Context, name, timezone string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, "", errors.Validation("user name is required")
	}
	if timezone != "" && !daykey.ValidateTimezone(timezone) {
		return models.User{}, "", errors.Validation("invalid timezone %q", timezone)
	}

	token, err := newToken()
	if err != nil {
		return models.User{}, "", errors.Internal("generate token", err)
	}
	u := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		TokenHash: HashToken(token),
		Timezone:  timezone,
		CreatedAt: s.now(),
	}
	if err := s.store.AddUser(ctx, u); err != nil {
		if goerrors.Is(err, storage.ErrConflict) {
			return models.User{}, "", errors.Validation("user %q already exists", name)
		}
		return models.User{}, "", errors.Internal("create user", err)
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, errors.Unauthenticated("missing bearer token")
	}
	u, err := s.store.GetUserByTokenHash(ctx, HashToken(token))
	if err != nil {
		if goerrors.Is(err, storage.ErrNotFound) {
			return models.User{}, errors.Unauthenticated("invalid bearer token")
		}
		return models.User{}, errors.Internal("authenticate", err)
	}
	return u, nil
}

// ByName looks a user up by name.
func (s *Service) ByName(ctx context.Context, name string) (models.User, error) {
	u, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		if goerrors.Is(err, storage.ErrNotFound) {
			return models.User{}, errors.NotFound("user %q not found", name)
		}
		return models.User{}, errors.Internal("get user", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, errors.Internal("list users", err)
	}
	return users, nil
}

// RotateToken replaces a user's token and returns the new plaintext value.
func (s *Service) RotateToken(ctx context.Context, name string) (string, error) {
	u, err := s.ByName(ctx, name)
	if err != nil {
		return "", err
	}
	token, err := newToken()
	if err != nil {
		return "", errors.Internal("generate token", err)
	}
	u.TokenHash = HashToken(token)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return "", errors.Internal("rotate token", err)
	}
	return token, nil
}

// SetTimezone changes the zone used for a user's day keys. An empty value
// falls back to the server setting.
func (s *Service) SetTimezone(ctx context.Context, name, timezone string) (models.User, error) {
	if timezone != "" && !daykey.ValidateTimezone(timezone) {
		return models.User{}, errors.Validation("invalid timezone %q", timezone)
	}
	u, err := s.ByName(ctx, name)
	if err != nil {
		return models.User{}, err
	}
	u.Timezone = timezone
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return models.User{}, errors.Internal("update user", err)
	}
	return u, nil
}
