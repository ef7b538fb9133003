package job

import (
	"context"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/gsqlai/internal/model"
	"github.com/xxxsen/gsqlai/internal/service"
)

type UsageSource interface {
	Usage() service.UsageSnapshot
	Sections(ctx context.Context) []*model.KnowledgeChunk
}

// UsageReportJob logs request counters accumulated since its previous run.
type UsageReportJob struct {
	source UsageSource

	mu   sync.Mutex
	last service.UsageSnapshot
}

func NewUsageReportJob(source UsageSource) *UsageReportJob {
	return &UsageReportJob{source: source}
}

func (j *UsageReportJob) Name() string {
	return "usage_report"
}

func (j *UsageReportJob) Run(ctx context.Context) error {
	delta := j.collect()
	logutil.GetLogger(ctx).Info("gsql ai usage",
		zap.Int64("requests", delta.Requests),
		zap.Int64("cache_hits", delta.CacheHits),
		zap.Int64("degraded", delta.Degraded),
		zap.Int64("rate_limited", delta.RateLimited),
		zap.Int64("unavailable", delta.Unavailable),
		zap.Int64("misconfigured", delta.Misconfigured),
		zap.Int("sections", len(j.source.Sections(ctx))),
	)
	return nil
}

func (j *UsageReportJob) collect() service.UsageSnapshot {
	current := j.source.Usage()
	j.mu.Lock()
	defer j.mu.Unlock()
	delta := service.UsageSnapshot{
		Requests:      current.Requests - j.last.Requests,
		CacheHits:     current.CacheHits - j.last.CacheHits,
		Degraded:      current.Degraded - j.last.Degraded,
		RateLimited:   current.RateLimited - j.last.RateLimited,
		Unavailable:   current.Unavailable - j.last.Unavailable,
		Misconfigured: current.Misconfigured - j.last.Misconfigured,
	}
	j.last = current
	return delta
}
