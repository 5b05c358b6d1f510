package service

import (
	"context"

	"github.com/deptdocs/revisor/internal/metrics"
)

// Retention job names.
const (
	JobAuditRetention        = "audit-retention"
	JobNotificationRetention = "notification-retention"
)

// AuditRetentionJob purges audit entries older than Days.
type AuditRetentionJob struct {
	Audit *AuditService
	Days  int
}

// Name implements schedule.Job.
func (j *AuditRetentionJob) Name() string { return JobAuditRetention }

// Run implements schedule.Job.
func (j *AuditRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.Audit.purge(ctx, "retention", j.Days)
	if err != nil {
		return err
	}

	metrics.RetentionPurged.WithLabelValues(JobAuditRetention).Add(float64(deleted))

	return nil
}

// NotificationRetentionJob purges notifications read more than Days ago.
type NotificationRetentionJob struct {
	Notifications *NotificationService
	Days          int
}

// Name implements schedule.Job.
func (j *NotificationRetentionJob) Name() string { return JobNotificationRetention }

// Run implements schedule.Job.
func (j *NotificationRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.Notifications.PurgeRead(ctx, j.Days)
	if err != nil {
		return err
	}

	metrics.RetentionPurged.WithLabelValues(JobNotificationRetention).Add(float64(deleted))

	return nil
}
