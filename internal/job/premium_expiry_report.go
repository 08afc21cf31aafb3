// 文件路径: internal/job/premium_expiry_report.go
// 模块说明: 这是 internal 模块里的 premium_expiry_report 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

// PremiumExpiryReportJob 列出 dateEnd 已过但仍未标记 expired 的用户。
// 只写日志，不会自动修改 expired 标记。
type PremiumExpiryReportJob struct {
	Users  service.PremiumUserService
	Logger *slog.Logger
}

// NewPremiumExpiryReportJob 构造过期报告任务。
func NewPremiumExpiryReportJob(users service.PremiumUserService, logger *slog.Logger) *PremiumExpiryReportJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PremiumExpiryReportJob{Users: users, Logger: logger}
}

// Name 返回任务标识。
func (j *PremiumExpiryReportJob) Name() string { return "premium_user.expiry_report" }

// Run 汇总过期未标记的用户。
func (j *PremiumExpiryReportJob) Run(ctx context.Context) error {
	if j == nil || j.Users == nil {
		return fmt.Errorf("premium expiry report dependencies not configured / 过期报告任务依赖未配置")
	}
	lapsed, err := j.Users.Lapsed(ctx)
	if err != nil {
		return fmt.Errorf("premium expiry report: %w", err)
	}
	if len(lapsed) == 0 {
		return nil
	}
	for _, u := range lapsed {
		j.Logger.Warn("premium user past dateEnd but not flagged expired",
			"id", u.ID,
			"email", u.Email,
			"device_id", u.DeviceID,
			"date_end", service.FormatDate(u.DateEnd),
		)
	}
	j.Logger.Info("premium expiry report", "lapsed", len(lapsed))
	return nil
}
