package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService wraps domain.AuditStore with admin checks and logging for
// destructive operations.
type AuditService struct {
	store  domain.AuditStore
	policy domain.Authorizer
	log    *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store domain.AuditStore, policy domain.Authorizer, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, policy: policy, log: log}
}

// AppendAudit inserts an audit log entry (pass-through to store).
func (s *AuditService) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	return s.store.AppendAudit(ctx, entry)
}

// QueryAudit returns audit entries matching the given filters. Admin only.
func (s *AuditService) QueryAudit(
	ctx context.Context, actor models.Actor, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	if err := s.policy.CanAdminister(actor); err != nil {
		return nil, false, err
	}

	entries, hasMore, err := s.store.QueryAudit(ctx, opts)
	if err != nil {
		return nil, false, models.NewDependencyError("audit store", err)
	}

	return entries, hasMore, nil
}

// PurgeOldEntries deletes audit entries older than retentionDays and logs the result. Admin only.
func (s *AuditService) PurgeOldEntries(ctx context.Context, actor models.Actor, retentionDays int) (int, error) {
	if err := s.policy.CanAdminister(actor); err != nil {
		return 0, err
	}

	return s.purge(ctx, actor.ID, retentionDays)
}

func (s *AuditService) purge(ctx context.Context, by string, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, models.ErrRetentionDays
	}

	deleted, err := s.store.PurgeOldEntries(ctx, retentionDays)
	if err != nil {
		return 0, models.NewDependencyError("audit store", err)
	}

	s.log.WithFields(logrus.Fields{
		"by":             by,
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("audit.purge")

	return deleted, nil
}
