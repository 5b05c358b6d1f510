package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

// UserStore is an in-memory user directory.
type UserStore struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	byKeyHash  map[string]string
	byUsername map[string]string
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		users:      make(map[string]*models.User),
		byKeyHash:  make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// CreateUser stores a new user under the given API key hash.
func (s *UserStore) CreateUser(_ context.Context, req models.CreateUserRequest, apiKeyHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[req.Username]; ok {
		return nil, models.ErrDuplicateKey
	}

	if _, ok := s.byKeyHash[apiKeyHash]; ok {
		return nil, models.ErrDuplicateKey
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}

	s.users[u.ID] = u
	s.byKeyHash[apiKeyHash] = u.ID
	s.byUsername[u.Username] = u.ID

	out := *u

	return &out, nil
}

// GetUser returns a user by ID.
func (s *UserStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	out := *u

	return &out, nil
}

// GetUserByAPIKeyHash returns the user owning the API key hash.
func (s *UserStore) GetUserByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.byKeyHash[apiKeyHash]
	s.mu.RUnlock()

	if !ok {
		return nil, models.ErrUserNotFound
	}

	return s.GetUser(ctx, id)
}

// ListDepartmentMembers returns the department's users ordered by username.
func (s *UserStore) ListDepartmentMembers(_ context.Context, departmentID string) ([]models.User, error) {
	s.mu.RLock()

	members := make([]models.User, 0, 8)
	for _, u := range s.users {
		if u.DepartmentID == departmentID {
			members = append(members, *u)
		}
	}

	s.mu.RUnlock()

	slices.SortFunc(members, func(a, b models.User) int { return cmp.Compare(a.Username, b.Username) })

	return members, nil
}

var (
	_ domain.ContentStore      = (*ContentStore)(nil)
	_ domain.VersionStore      = (*ContentStore)(nil)
	_ domain.AuditStore        = (*AuditStore)(nil)
	_ domain.NotificationStore = (*NotificationStore)(nil)
	_ domain.UserStore         = (*UserStore)(nil)
)
