package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/deptdocs/revisor/internal/models"
)

// UserStore provides data access for the users table. It doubles as the
// user directory for author enrichment and notification fan-out.
type UserStore struct {
	Base
}

// NewUserStore creates a UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// CreateUser inserts a user with the given API key hash.
func (s *UserStore) CreateUser(ctx context.Context, req models.CreateUserRequest, apiKeyHash string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, `INSERT INTO users
		(username, display_name, email, department_id, role, api_key_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		req.Username, req.DisplayName, req.Email, req.DepartmentID, req.Role, apiKeyHash,
	)

	u, err := scanUser(row.Scan)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, models.ErrDuplicateKey
		}

		return nil, dependency("inserting user", err)
	}

	return u, nil
}

// GetUser returns a user by ID.
func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, models.ErrUserNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", userID)
}

// GetUserByAPIKeyHash returns the user owning the API key hash.
func (s *UserStore) GetUserByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE api_key_hash = $1", apiKeyHash)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u, err := scanUser(s.Pool.QueryRow(ctx, query, arg).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, dependency("getting user", err)
	}

	return u, nil
}

// ListDepartmentMembers returns every user of the department.
func (s *UserStore) ListDepartmentMembers(ctx context.Context, departmentID string) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE department_id = $1 ORDER BY username",
		departmentID,
	)
	if err != nil {
		return nil, dependency("listing department members", err)
	}
	defer rows.Close()

	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, dependency("listing department members", err)
	}

	return users, nil
}
