package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

// apiKeyPrefix marks revisor API keys so they are recognizable in configs and logs.
const apiKeyPrefix = "rvk_"

// UserService manages directory users and their API keys.
type UserService struct {
	store domain.UserStore
	log   *logrus.Logger
}

// NewUserService creates a UserService.
func NewUserService(store domain.UserStore, log *logrus.Logger) *UserService {
	return &UserService{store: store, log: log}
}

// HashAPIKey returns the hex-encoded SHA-256 of an API key. Only the hash is stored.
func HashAPIKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(h[:])
}

// GenerateAPIKey returns a new random API key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}

	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// CreateUser creates a user and returns the plaintext API key. The key is
// not retrievable afterwards.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, string, error) {
	apiKey, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	u, err := s.CreateUserWithKey(ctx, req, apiKey)
	if err != nil {
		return nil, "", err
	}

	return u, apiKey, nil
}

// CreateUserWithKey creates a user that authenticates with the given key.
func (s *UserService) CreateUserWithKey(ctx context.Context, req models.CreateUserRequest, apiKey string) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.CreateUser(ctx, req, HashAPIKey(apiKey))
	if err != nil {
		return nil, models.NewDependencyError("user store", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":       u.ID,
		"username":      u.Username,
		"department_id": u.DepartmentID,
		"role":          u.Role,
	}).Info("user.create")

	return u, nil
}

// GetUserByAPIKey authenticates an API key.
func (s *UserService) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if apiKey == "" {
		return nil, models.ErrUserNotFound
	}

	return s.store.GetUserByAPIKeyHash(ctx, HashAPIKey(apiKey))
}

// ValidateAPIKey returns the ID of the user owning apiKey.
func (s *UserService) ValidateAPIKey(ctx context.Context, apiKey string) (string, error) {
	u, err := s.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return "", err
	}

	return u.ID, nil
}
