package models

import (
	"errors"
	"fmt"
)

// Error categories. Every concrete error below wraps exactly one of these so
// callers can branch with errors.Is without knowing the specific cause.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrDependency = errors.New("dependency error")
	ErrForbidden  = errors.New("forbidden")
)

// Sentinel errors for validation.
var (
	ErrMissingTitle         = fmt.Errorf("%w: title is required", ErrValidation)
	ErrMissingSlug          = fmt.Errorf("%w: slug is required", ErrValidation)
	ErrMissingType          = fmt.Errorf("%w: type is required", ErrValidation)
	ErrInvalidSlug          = fmt.Errorf("%w: slug must be lowercase words separated by hyphens", ErrValidation)
	ErrInvalidType          = fmt.Errorf("%w: type must be one of sop, guide, announcement, resource, training, policy", ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("%w: status must be one of draft, published, archived", ErrValidation)
	ErrMissingStatus        = fmt.Errorf("%w: status is required", ErrValidation)
	ErrInvalidContentID     = fmt.Errorf("%w: content id must be a UUID", ErrValidation)
	ErrInvalidRole          = fmt.Errorf("%w: role must be one of admin, editor, viewer", ErrValidation)
	ErrMissingDepartment    = fmt.Errorf("%w: department_id is required", ErrValidation)
	ErrMissingUsername      = fmt.Errorf("%w: username is required", ErrValidation)
	ErrInvalidVersionNumber = fmt.Errorf("%w: version number must be a positive integer", ErrValidation)
	ErrMissingExpected      = fmt.Errorf("%w: expected_version is required", ErrValidation)
	ErrEmptyUpdate          = fmt.Errorf("%w: update contains no fields", ErrValidation)
	ErrRetentionDays        = fmt.Errorf("%w: retention days must be at least 1", ErrValidation)
)

// Sentinel errors for entity lookups.
var (
	ErrContentNotFound      = fmt.Errorf("content %w", ErrNotFound)
	ErrVersionNotFound      = fmt.Errorf("version %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// Sentinel errors for write preconditions (map to HTTP 409 Conflict).
var (
	ErrVersionConflict = fmt.Errorf("%w: content was modified by someone else, please retry", ErrConflict)
	ErrDuplicateSlug   = fmt.Errorf("%w: slug already in use", ErrConflict)
	ErrDuplicateKey    = fmt.Errorf("%w: duplicate key", ErrConflict)
)

// ErrFieldTooLong returns a validation error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrValidation, field, maxLen)
}

// DependencyError reports a failing collaborator (store, directory, sink).
type DependencyError struct {
	Dependency string
	Err        error
}

// NewDependencyError wraps err as a failure of the named collaborator.
// Errors that already carry a category are returned unchanged.
func NewDependencyError(dependency string, err error) error {
	if err == nil {
		return nil
	}

	for _, category := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrDependency, ErrForbidden} {
		if errors.Is(err, category) {
			return err
		}
	}

	return &DependencyError{Dependency: dependency, Err: err}
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Is reports category membership so errors.Is(err, ErrDependency) holds.
func (e *DependencyError) Is(target error) bool { return target == ErrDependency }
