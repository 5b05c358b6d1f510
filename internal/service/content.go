package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

var _ domain.ContentService = (*ContentService)(nil)

// ContentService serves department-scoped reads of live content.
type ContentService struct {
	store  domain.ContentStore
	policy domain.Authorizer
	log    *logrus.Logger
}

// NewContentService creates a ContentService.
func NewContentService(store domain.ContentStore, policy domain.Authorizer, log *logrus.Logger) *ContentService {
	return &ContentService{store: store, policy: policy, log: log}
}

// GetContent returns a content item the actor may read.
func (s *ContentService) GetContent(ctx context.Context, actor models.Actor, contentID string) (*models.ContentItem, error) {
	item, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, models.NewDependencyError("content store", err)
	}

	if err := s.policy.CanRead(actor, item); err != nil {
		return nil, err
	}

	return item, nil
}

// ListContent lists content. Non-admins only see their own department;
// asking for another department is forbidden.
func (s *ContentService) ListContent(
	ctx context.Context, actor models.Actor, opts models.ContentListOpts,
) ([]models.ContentItem, bool, error) {
	if s.policy.CanAdminister(actor) != nil {
		if opts.DepartmentID == "" {
			opts.DepartmentID = actor.DepartmentID
		}

		if err := s.policy.CanRead(actor, &models.ContentItem{DepartmentID: opts.DepartmentID}); err != nil {
			return nil, false, err
		}
	}

	if opts.Status != "" && !opts.Status.Valid() {
		return nil, false, models.ErrInvalidStatus
	}

	if opts.Type != "" && !opts.Type.Valid() {
		return nil, false, models.ErrInvalidType
	}

	items, hasMore, err := s.store.ListContent(ctx, opts)
	if err != nil {
		return nil, false, models.NewDependencyError("content store", err)
	}

	return items, hasMore, nil
}
