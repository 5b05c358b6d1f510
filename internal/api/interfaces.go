package api

import (
	"github.com/deptdocs/revisor/internal/domain"
)

// Handler dependencies are the canonical domain service interfaces; handlers
// never talk to stores directly.
type (
	// LifecycleService performs version-producing writes.
	LifecycleService = domain.LifecycleService
	// ComparisonService answers version history queries.
	ComparisonService = domain.ComparisonService
	// ContentService reads live content.
	ContentService = domain.ContentService
	// AuditService queries and purges the audit log.
	AuditService = domain.AuditService
	// NotificationService serves a user's notifications.
	NotificationService = domain.NotificationService
)
