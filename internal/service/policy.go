package service

import (
	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

var _ domain.Authorizer = DepartmentPolicy{}

// DepartmentPolicy scopes access by department: admins may do anything,
// editors may change content of their own department, and editors and
// viewers may read content of their own department.
type DepartmentPolicy struct{}

// CanRead allows admins and members of the content's department.
func (DepartmentPolicy) CanRead(actor models.Actor, item *models.ContentItem) error {
	if actor.ID == "" {
		return models.ErrForbidden
	}

	if actor.Role == models.RoleAdmin {
		return nil
	}

	if item == nil || actor.DepartmentID == "" || actor.DepartmentID != item.DepartmentID {
		return models.ErrForbidden
	}

	if actor.Role != models.RoleEditor && actor.Role != models.RoleViewer {
		return models.ErrForbidden
	}

	return nil
}

// CanWrite allows admins and editors of the content's department. item is
// the content as it will be stored, so creates are checked against the
// target department.
func (DepartmentPolicy) CanWrite(actor models.Actor, item *models.ContentItem) error {
	if actor.ID == "" {
		return models.ErrForbidden
	}

	if actor.Role == models.RoleAdmin {
		return nil
	}

	if actor.Role != models.RoleEditor || item == nil || actor.DepartmentID == "" || actor.DepartmentID != item.DepartmentID {
		return models.ErrForbidden
	}

	return nil
}

// CanAdminister allows admins only.
func (DepartmentPolicy) CanAdminister(actor models.Actor) error {
	if actor.ID == "" || actor.Role != models.RoleAdmin {
		return models.ErrForbidden
	}

	return nil
}
