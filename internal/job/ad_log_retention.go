package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// AdLogRetentionJob deletes ad callbacks older than the retention window.
type AdLogRetentionJob struct {
	AdLogs    service.AdLogService
	Retention time.Duration
	Logger    *slog.Logger
}

// NewAdLogRetentionJob creates a new AdLogRetentionJob.
func NewAdLogRetentionJob(adLogs service.AdLogService, retention time.Duration, logger *slog.Logger) *AdLogRetentionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdLogRetentionJob{AdLogs: adLogs, Retention: retention, Logger: logger}
}

// Name implements Runnable interface.
func (j *AdLogRetentionJob) Name() string {
	return "ad_log.retention"
}

// Run implements Runnable interface. A non-positive retention keeps everything.
func (j *AdLogRetentionJob) Run(ctx context.Context) error {
	if j == nil || j.AdLogs == nil {
		return fmt.Errorf("ad log retention job dependencies not configured / 广告日志清理任务依赖未配置")
	}
	if j.Retention <= 0 {
		return nil
	}

	deleted, err := j.AdLogs.Purge(ctx, j.Retention)
	if err != nil {
		return fmt.Errorf("ad log retention job: %w", err)
	}

	if deleted > 0 {
		j.Logger.Info("purged old ad callbacks", "deleted_rows", deleted, "retention", j.Retention)
	}

	return nil
}
