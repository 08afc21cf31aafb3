// 文件路径: internal/client/resources.go
// 模块说明: 这是 internal 模块里的 resources 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

// ListParams 对应列表接口的 q/sort/direction 以及各实体自己的筛选参数。
type ListParams struct {
	Query     string
	Sort      string
	Direction string
	Filters   url.Values
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	for k, vals := range p.Filters {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Direction != "" {
		v.Set("direction", p.Direction)
	}
	return v
}

// Resource is a typed handle on one CRUD collection. E is the stored entity, F its form.
type Resource[E, F any] struct {
	c    *Client
	path string
}

// List returns the filtered and sorted collection and its size.
func (r Resource[E, F]) List(ctx context.Context, p ListParams) ([]E, int, error) {
	var env envelope[[]E]
	if err := r.c.do(ctx, http.MethodGet, r.path, p.values(), nil, &env); err != nil {
		return nil, 0, err
	}
	return env.Data, env.Total, nil
}

// Get fetches one entity.
func (r Resource[E, F]) Get(ctx context.Context, id string) (E, error) {
	return getData[E](ctx, r.c, r.path+"/"+url.PathEscape(id), nil)
}

// Form returns the dialog pre-fill: defaults for an empty id, the stored entity otherwise.
func (r Resource[E, F]) Form(ctx context.Context, id string) (F, error) {
	if id == "" {
		return getData[F](ctx, r.c, r.path+"/form", nil)
	}
	return getData[F](ctx, r.c, r.path+"/"+url.PathEscape(id)+"/form", nil)
}

// Create submits a form (or a partial map of form fields over the create defaults).
func (r Resource[E, F]) Create(ctx context.Context, body any) (Mutation[E], error) {
	return mutate[E](ctx, r.c, http.MethodPost, r.path, body)
}

// Update merges patch over the stored entity's form; absent fields keep their values.
func (r Resource[E, F]) Update(ctx context.Context, id string, patch any) (Mutation[E], error) {
	return mutate[E](ctx, r.c, http.MethodPut, r.path+"/"+url.PathEscape(id), patch)
}

// Delete removes one entity; deleting an absent id is not an error.
func (r Resource[E, F]) Delete(ctx context.Context, id string) (Deletion, error) {
	var env envelope[struct{}]
	if err := r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return Deletion{}, err
	}
	return Deletion{Message: env.Message, Deleted: env.Deleted}, nil
}

// Servers 节点集合。
func (c *Client) Servers() Resource[repository.Server, service.ServerForm] {
	return Resource[repository.Server, service.ServerForm]{c: c, path: "/servers"}
}

// Configs 配置集合。
func (c *Client) Configs() Resource[repository.Config, service.ConfigForm] {
	return Resource[repository.Config, service.ConfigForm]{c: c, path: "/configs"}
}

// PremiumUsers 付费用户集合。
func (c *Client) PremiumUsers() Resource[repository.PremiumUser, service.PremiumUserForm] {
	return Resource[repository.PremiumUser, service.PremiumUserForm]{c: c, path: "/premium-users"}
}

func (c *Client) ServerStats(ctx context.Context) (service.ServerStats, error) {
	return getData[service.ServerStats](ctx, c, "/servers/stats", nil)
}

// ServerLoads returns the derived capacity view with colour bands.
func (c *Client) ServerLoads(ctx context.Context) ([]service.ServerLoad, error) {
	return getData[[]service.ServerLoad](ctx, c, "/servers/online-users", nil)
}

// PingServer stamps lastPing on a server.
func (c *Client) PingServer(ctx context.Context, id string) (Mutation[repository.Server], error) {
	return mutate[repository.Server](ctx, c, http.MethodPost, "/servers/"+url.PathEscape(id)+"/ping", nil)
}

func (c *Client) ConfigStats(ctx context.Context) (service.ConfigStats, error) {
	return getData[service.ConfigStats](ctx, c, "/configs/stats", nil)
}

// RecordDownload bumps a config's download counter.
func (c *Client) RecordDownload(ctx context.Context, id string) (Mutation[repository.Config], error) {
	return mutate[repository.Config](ctx, c, http.MethodPost, "/configs/"+url.PathEscape(id)+"/download", nil)
}

// Vote records a positive or negative vote on a config.
func (c *Client) Vote(ctx context.Context, id string, positive bool) (Mutation[repository.Config], error) {
	body := map[string]bool{"positive": positive}
	return mutate[repository.Config](ctx, c, http.MethodPost, "/configs/"+url.PathEscape(id)+"/vote", body)
}

func (c *Client) PremiumUserStats(ctx context.Context) (service.PremiumUserStats, error) {
	return getData[service.PremiumUserStats](ctx, c, "/premium-users/stats", nil)
}

// VerifyDevice checks a device's premium status the way the mobile app does.
func (c *Client) VerifyDevice(ctx context.Context, deviceID string) (service.PremiumVerification, error) {
	return getData[service.PremiumVerification](ctx, c, "/premium-users/verify/"+url.PathEscape(deviceID), nil)
}

// CallbackFilter narrows the ad callback history. Zero values are omitted.
type CallbackFilter struct {
	UserID string
	AdType string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
}

func (f CallbackFilter) values() url.Values {
	v := url.Values{}
	if f.UserID != "" {
		v.Set("userId", f.UserID)
	}
	if f.AdType != "" {
		v.Set("adType", f.AdType)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	// 服务端的时间参数是毫秒
	if !f.From.IsZero() {
		v.Set("fromDate", strconv.FormatInt(f.From.UnixMilli(), 10))
	}
	if !f.To.IsZero() {
		v.Set("toDate", strconv.FormatInt(f.To.UnixMilli(), 10))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// Callbacks returns stored ad callbacks, newest first.
func (c *Client) Callbacks(ctx context.Context, f CallbackFilter) ([]repository.AdCallback, error) {
	return getData[[]repository.AdCallback](ctx, c, "/ad-logs/callbacks", f.values())
}

func (c *Client) UserStatuses(ctx context.Context) ([]repository.UserAdStatus, error) {
	return getData[[]repository.UserAdStatus](ctx, c, "/ad-logs/user-status", nil)
}

func (c *Client) UserStatus(ctx context.Context, userID string) (repository.UserAdStatus, error) {
	return getData[repository.UserAdStatus](ctx, c, "/ad-logs/user-status/"+url.PathEscape(userID), nil)
}

// RecordCallback posts one ad callback.
func (c *Client) RecordCallback(ctx context.Context, in service.AdCallbackInput) (Mutation[service.AdCallbackResult], error) {
	return mutate[service.AdCallbackResult](ctx, c, http.MethodPost, "/ad-logs/callback", in)
}

func (c *Client) AdLogStats(ctx context.Context) (service.AdLogStats, error) {
	return getData[service.AdLogStats](ctx, c, "/ad-logs/stats", nil)
}

func (c *Client) AppSettings(ctx context.Context) (repository.AppSettings, error) {
	return getData[repository.AppSettings](ctx, c, "/app-settings", nil)
}

func (c *Client) AppSettingsForm(ctx context.Context) (service.AppSettingsForm, error) {
	return getData[service.AppSettingsForm](ctx, c, "/app-settings/form", nil)
}

// UpdateAppSettings merges patch over the current settings form.
func (c *Client) UpdateAppSettings(ctx context.Context, patch any) (Mutation[repository.AppSettings], error) {
	return mutate[repository.AppSettings](ctx, c, http.MethodPut, "/app-settings", patch)
}

func (c *Client) ResetAppSettings(ctx context.Context) (Mutation[repository.AppSettings], error) {
	return mutate[repository.AppSettings](ctx, c, http.MethodPost, "/app-settings/reset", nil)
}

// AppVersions lists the version/build history, newest first.
func (c *Client) AppVersions(ctx context.Context, limit int) ([]repository.AppVersion, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	return getData[[]repository.AppVersion](ctx, c, "/app-settings/versions", q)
}

func (c *Client) SystemStatus(ctx context.Context) (service.SystemStatus, error) {
	return getData[service.SystemStatus](ctx, c, "/system/status", nil)
}
