// 文件路径: internal/service/ad_log.go
// 模块说明: 这是 internal 模块里的 ad_log 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// AdTypes and AdStatuses list the values accepted from ad SDK callbacks.
var (
	AdTypes    = []string{"premium", "standard", "featured", "video", "interactive"}
	AdStatuses = []string{"completed", "started", "error"}
)

const adStatusCompleted = "completed"

// AdEvent 是推送给 WebSocket 订阅者的一条回调。
type AdEvent struct {
	UserID    string `json:"userId"`
	AdType    string `json:"adType"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher 把事件广播给在线订阅者；实现不得阻塞。
type Publisher interface {
	Publish(event AdEvent)
}

// AdCallbackInput 是 POST /ad-logs/callback 的请求体。Timestamp 为毫秒，0 表示使用服务器时间。
type AdCallbackInput struct {
	UserID    string `json:"userId" validate:"required,max=128"`
	AdType    string `json:"adType" validate:"required,oneof=premium standard featured video interactive"`
	Status    string `json:"status" validate:"required,oneof=completed started error"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

// AdCallbackResult 返回写入的回调和更新后的用户状态。
type AdCallbackResult struct {
	Callback *repository.AdCallback   `json:"callback"`
	Status   *repository.UserAdStatus `json:"status"`
	Notice   Notice                   `json:"-"`
}

// AdLogStats is the dashboard summary for ad callbacks.
type AdLogStats struct {
	TotalCallbacks int64            `json:"totalCallbacks"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ByAdType       map[string]int64 `json:"byAdType"`
	UniqueUsers    int64            `json:"uniqueUsers"`
	Last24h        int64            `json:"last24h"`
}

// AdLogService 记录广告回调并维护用户的广告有效期。
type AdLogService interface {
	Record(ctx context.Context, input AdCallbackInput) (AdCallbackResult, error)
	Callbacks(ctx context.Context, filter repository.AdCallbackFilter) ([]*repository.AdCallback, error)
	Status(ctx context.Context, userID string) (*repository.UserAdStatus, error)
	Statuses(ctx context.Context) ([]*repository.UserAdStatus, error)
	Stats(ctx context.Context) (AdLogStats, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// AdLogMetrics counts callbacks by type and status.
type AdLogMetrics struct {
	callbacks *prometheus.CounterVec
}

// NewAdLogMetrics registers the callback counter on reg.
func NewAdLogMetrics(reg prometheus.Registerer, namespace string) *AdLogMetrics {
	if namespace == "" {
		namespace = "vpnadmin"
	}
	return &AdLogMetrics{
		callbacks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adlogs",
			Name:      "callbacks_total",
			Help:      "Ad SDK callbacks received, by ad type and status.",
		}, []string{"ad_type", "status"}),
	}
}

func (m *AdLogMetrics) observe(adType, status string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(adType, status).Inc()
}

// AdLogOptions 是广告日志服务的可选组件。
type AdLogOptions struct {
	Publisher    Publisher
	Metrics      *AdLogMetrics
	DefaultLimit int
}

type adLogService struct {
	core
	publisher    Publisher
	metrics      *AdLogMetrics
	defaultLimit int
}

// NewAdLogService 组装广告日志服务。
func NewAdLogService(deps Deps, opts AdLogOptions) AdLogService {
	limit := opts.DefaultLimit
	if limit <= 0 {
		limit = 100
	}
	return &adLogService{
		core:         newCore(deps, "ad_log_service"),
		publisher:    opts.Publisher,
		metrics:      opts.Metrics,
		defaultLimit: limit,
	}
}

// Record 保存回调、广播给订阅者，并把它折算进用户的广告状态。
func (s *adLogService) Record(ctx context.Context, input AdCallbackInput) (AdCallbackResult, error) {
	input.UserID = stripTags(input.UserID)
	input.AdType = stripTags(input.AdType)
	input.Status = stripTags(input.Status)
	if errs := validateStruct(input); errs.orNil() != nil {
		return AdCallbackResult{}, errs
	}

	now := s.now().UTC()
	nowMillis := now.UnixMilli()
	cb := &repository.AdCallback{
		UserID:    input.UserID,
		Timestamp: input.Timestamp,
		AdType:    input.AdType,
		Status:    input.Status,
	}
	if cb.Timestamp == 0 {
		cb.Timestamp = nowMillis
	}
	if err := s.store.AdLogs().InsertCallback(ctx, cb); err != nil {
		return AdCallbackResult{}, fmt.Errorf("insert ad callback: %w", err)
	}
	s.metrics.observe(cb.AdType, cb.Status)
	s.stats.invalidate(ctx, statsKeyAdLogs)
	if s.publisher != nil {
		s.publisher.Publish(AdEvent{UserID: cb.UserID, AdType: cb.AdType, Status: cb.Status, Timestamp: cb.Timestamp})
	}

	status, err := s.fold(ctx, cb, nowMillis)
	if err != nil {
		return AdCallbackResult{}, err
	}
	result := AdCallbackResult{Callback: cb, Status: status, Notice: notice("ad_log.recorded", cb.UserID)}
	if cb.Status == adStatusCompleted {
		result.Notice = notice("ad_log.extended", cb.UserID)
	}
	return result, nil
}

// fold 更新用户状态：lastSeen 总是刷新；completed 时观看次数加一并延长有效期，
// 延长后不超过 now + timeMaxHour。计算在仓储的单条语句里完成。
func (s *adLogService) fold(ctx context.Context, cb *repository.AdCallback, nowMillis int64) (*repository.UserAdStatus, error) {
	bump := repository.StatusBump{SeenAt: nowMillis}
	if cb.Status == adStatusCompleted {
		settings, err := s.loadSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load app settings: %w", err)
		}
		hour := time.Hour.Milliseconds()
		bump.Completed = true
		bump.StepMillis = int64(settings.TimeStepHour) * hour
		bump.CapAt = nowMillis + int64(settings.TimeMaxHour)*hour
		bump.FirstValidUntil = ExtendValidity(0, nowMillis, settings.TimeStepHour, settings.TimeMaxHour)
	}
	status, err := s.store.AdLogs().BumpStatus(ctx, cb.UserID, bump)
	if err != nil {
		return nil, fmt.Errorf("save ad status: %w", err)
	}
	return status, nil
}

// ExtendValidity returns min(max(validUntil, now) + step, now + max), all in milliseconds.
func ExtendValidity(validUntil, nowMillis int64, stepHour, maxHour int) int64 {
	hour := time.Hour.Milliseconds()
	next := max(validUntil, nowMillis) + int64(stepHour)*hour
	return min(next, nowMillis+int64(maxHour)*hour)
}

func (s *adLogService) Callbacks(ctx context.Context, filter repository.AdCallbackFilter) ([]*repository.AdCallback, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidFilter)
	}
	if filter.FromMillis > 0 && filter.ToMillis > 0 && filter.FromMillis > filter.ToMillis {
		return nil, fmt.Errorf("%w: fromDate is after toDate", ErrInvalidFilter)
	}
	if filter.Limit == 0 {
		filter.Limit = s.defaultLimit
	}
	list, err := s.store.AdLogs().ListCallbacks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list ad callbacks: %w", err)
	}
	return list, nil
}

func (s *adLogService) Status(ctx context.Context, userID string) (*repository.UserAdStatus, error) {
	status, err := s.store.AdLogs().GetStatus(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return status, nil
}

func (s *adLogService) Statuses(ctx context.Context) ([]*repository.UserAdStatus, error) {
	list, err := s.store.AdLogs().ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ad statuses: %w", err)
	}
	return list, nil
}

func (s *adLogService) Stats(ctx context.Context) (AdLogStats, error) {
	return cachedStats(ctx, s.stats, statsKeyAdLogs, func(ctx context.Context) (AdLogStats, error) {
		logs := s.store.AdLogs()
		var st AdLogStats
		var err error
		if st.TotalCallbacks, err = logs.CountCallbacks(ctx, 0); err != nil {
			return AdLogStats{}, fmt.Errorf("count callbacks: %w", err)
		}
		since := s.now().Add(-24 * time.Hour).UnixMilli()
		if st.Last24h, err = logs.CountCallbacks(ctx, since); err != nil {
			return AdLogStats{}, fmt.Errorf("count recent callbacks: %w", err)
		}
		if st.UniqueUsers, err = logs.CountUniqueUsers(ctx); err != nil {
			return AdLogStats{}, fmt.Errorf("count unique users: %w", err)
		}
		if st.ByStatus, err = countMap(ctx, logs, "status"); err != nil {
			return AdLogStats{}, err
		}
		if st.ByAdType, err = countMap(ctx, logs, "ad_type"); err != nil {
			return AdLogStats{}, err
		}
		return st, nil
	})
}

func countMap(ctx context.Context, logs repository.AdLogRepository, column string) (map[string]int64, error) {
	counts, err := logs.CountBy(ctx, column)
	if err != nil {
		return nil, fmt.Errorf("count callbacks by %s: %w", column, err)
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.Key] = c.Count
	}
	return out, nil
}

// Purge 删除早于保留期的回调记录，用户状态不受影响。
func (s *adLogService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-retention).UnixMilli()
	removed, err := s.store.AdLogs().DeleteCallbacksBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge ad callbacks: %w", err)
	}
	if removed > 0 {
		s.stats.invalidate(ctx, statsKeyAdLogs)
		s.logger.InfoContext(ctx, "purged ad callbacks", "removed", removed, "cutoff_ms", cutoff)
	}
	return removed, nil
}
