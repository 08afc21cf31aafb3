// 文件路径: internal/job/scheduler.go
// 模块说明: 这是 internal 模块里的 scheduler 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runnable 表示由调度器触发的后台任务。
type Runnable interface {
	Name() string
	Run(ctx context.Context) error
}

// DisabledSpec 在配置里表示关闭某个任务。
const DisabledSpec = "-"

const defaultJobTimeout = 2 * time.Minute

// Scheduler 封装 cron：同一任务不会重叠执行，panic 会被恢复并记录。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

// NewScheduler 构建支持可选秒字段和 @every/@daily 描述符的调度器。
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")
	cronLog := cronLogger{logger}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:  logger,
		timeout: defaultJobTimeout,
	}
}

// Register 绑定 cron 表达式与任务。空表达式或 "-" 表示不启用。
func (s *Scheduler) Register(spec string, runnable Runnable) (cron.EntryID, error) {
	if runnable == nil {
		return 0, fmt.Errorf("scheduler: runnable is required / runnable 不能为空")
	}
	if spec == "" || spec == DisabledSpec {
		s.logger.Info("job disabled", "job", runnable.Name())
		return 0, nil
	}
	id, err := s.cron.AddJob(spec, cronJob{s, runnable})
	if err != nil {
		return 0, fmt.Errorf("scheduler: %s: %w", runnable.Name(), err)
	}
	s.logger.Info("job registered", "job", runnable.Name(), "spec", spec, "next", s.cron.Entry(id).Schedule.Next(time.Now()))
	return id, nil
}

// RunNow 立即同步执行一次任务，和定时触发走同一套超时与日志。
func (s *Scheduler) RunNow(runnable Runnable) {
	cronJob{s, runnable}.Run()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start 启动调度器；重复调用无副作用。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止触发新任务，返回的 context 在执行中的任务结束后 Done。
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronJob 给任务加上超时和统一日志。
type cronJob struct {
	s        *Scheduler
	runnable Runnable
}

func (j cronJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.s.timeout)
	defer cancel()
	start := time.Now()
	if err := j.runnable.Run(ctx); err != nil {
		j.s.logger.Error("job failed", "job", j.runnable.Name(), "error", err, "elapsed", time.Since(start))
		return
	}
	j.s.logger.Debug("job completed", "job", j.runnable.Name(), "elapsed", time.Since(start))
}

// cronLogger 把 cron 内部日志转到 slog。
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
