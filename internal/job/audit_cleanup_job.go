package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GenerationPruner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// AuditCleanupJob drops generation audit rows older than maxAgeDays.
type AuditCleanupJob struct {
	repo       GenerationPruner
	maxAgeDays int
	now        func() time.Time
}

func NewAuditCleanupJob(repo GenerationPruner, maxAgeDays int) *AuditCleanupJob {
	return &AuditCleanupJob{repo: repo, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *AuditCleanupJob) Name() string {
	return "audit_cleanup"
}

func (j *AuditCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := j.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).UnixMilli()
	deleted, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("generation audit pruned", zap.Int64("deleted", deleted), zap.Int("max_age_days", maxAgeDays))
	return nil
}
