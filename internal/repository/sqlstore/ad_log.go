// 文件路径: internal/repository/sqlstore/ad_log.go
// 模块说明: 这是 internal 模块里的 ad_log 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"context"
	"fmt"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

type adLogRepo struct {
	c conn
}

func (r *adLogRepo) InsertCallback(ctx context.Context, cb *repository.AdCallback) error {
	const stmt = `INSERT INTO ad_callbacks (user_id, ts, ad_type, status) VALUES (?, ?, ?, ?) RETURNING id`
	return r.c.queryRow(ctx, stmt, cb.UserID, cb.Timestamp, cb.AdType, cb.Status).Scan(&cb.ID)
}

// ListCallbacks 按时间倒序返回回调，最新的在前。
func (r *adLogRepo) ListCallbacks(ctx context.Context, filter repository.AdCallbackFilter) ([]*repository.AdCallback, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.AdType != "" {
		w.add("ad_type = ?", filter.AdType)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.FromMillis > 0 {
		w.add("ts >= ?", filter.FromMillis)
	}
	if filter.ToMillis > 0 {
		w.add("ts <= ?", filter.ToMillis)
	}
	query := `SELECT id, user_id, ts, ad_type, status FROM ad_callbacks` + w.String() + ` ORDER BY ts DESC, id DESC`
	args := w.args
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	rows, err := r.c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*repository.AdCallback, 0)
	for rows.Next() {
		var cb repository.AdCallback
		if err := rows.Scan(&cb.ID, &cb.UserID, &cb.Timestamp, &cb.AdType, &cb.Status); err != nil {
			return nil, err
		}
		list = append(list, &cb)
	}
	return list, rows.Err()
}

func (r *adLogRepo) CountCallbacks(ctx context.Context, sinceMillis int64) (int64, error) {
	var n int64
	err := r.c.queryRow(ctx, `SELECT COUNT(*) FROM ad_callbacks WHERE ts >= ?`, sinceMillis).Scan(&n)
	return n, err
}

var countableColumns = map[string]bool{"ad_type": true, "status": true}

func (r *adLogRepo) CountBy(ctx context.Context, column string) ([]repository.AdCallbackCount, error) {
	if !countableColumns[column] {
		return nil, fmt.Errorf("count ad callbacks: unsupported column %q", column)
	}
	rows, err := r.c.query(ctx, `SELECT `+column+`, COUNT(*) FROM ad_callbacks GROUP BY `+column+` ORDER BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.AdCallbackCount
	for rows.Next() {
		var c repository.AdCallbackCount
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *adLogRepo) CountUniqueUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.c.queryRow(ctx, `SELECT COUNT(DISTINCT user_id) FROM ad_callbacks`).Scan(&n)
	return n, err
}

func (r *adLogRepo) DeleteCallbacksBefore(ctx context.Context, beforeMillis int64) (int64, error) {
	res, err := r.c.exec(ctx, `DELETE FROM ad_callbacks WHERE ts < ?`, beforeMillis)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *adLogRepo) GetStatus(ctx context.Context, userID string) (*repository.UserAdStatus, error) {
	var s repository.UserAdStatus
	err := r.c.queryRow(ctx, `SELECT user_id, valid_until, ad_views, last_seen FROM user_ad_status WHERE user_id = ?`, userID).
		Scan(&s.UserID, &s.ValidUntil, &s.AdViews, &s.LastSeen)
	if err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

// validUntilStep 是 min(max(valid_until, now) + step, cap)，两种方言都能跑的写法。
const validUntilStep = `CASE WHEN (CASE WHEN user_ad_status.valid_until > ? THEN user_ad_status.valid_until ELSE ? END) + ? > ?
		THEN ? ELSE (CASE WHEN user_ad_status.valid_until > ? THEN user_ad_status.valid_until ELSE ? END) + ? END`

// BumpStatus 用一条 upsert 完成读改写，并发回调不会丢失计数。
func (r *adLogRepo) BumpStatus(ctx context.Context, userID string, bump repository.StatusBump) (*repository.UserAdStatus, error) {
	const returning = ` RETURNING user_id, valid_until, ad_views, last_seen`
	var (
		stmt string
		args []any
	)
	if bump.Completed {
		now := bump.SeenAt
		stmt = `INSERT INTO user_ad_status (user_id, valid_until, ad_views, last_seen) VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_seen = excluded.last_seen, ad_views = user_ad_status.ad_views + 1,
		valid_until = ` + validUntilStep + returning
		args = []any{userID, bump.FirstValidUntil, now,
			now, now, bump.StepMillis, bump.CapAt,
			bump.CapAt, now, now, bump.StepMillis}
	} else {
		stmt = `INSERT INTO user_ad_status (user_id, valid_until, ad_views, last_seen) VALUES (?, 0, 0, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_seen = excluded.last_seen` + returning
		args = []any{userID, bump.SeenAt}
	}

	var s repository.UserAdStatus
	if err := r.c.queryRow(ctx, stmt, args...).Scan(&s.UserID, &s.ValidUntil, &s.AdViews, &s.LastSeen); err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

func (r *adLogRepo) ListStatuses(ctx context.Context) ([]*repository.UserAdStatus, error) {
	rows, err := r.c.query(ctx, `SELECT user_id, valid_until, ad_views, last_seen FROM user_ad_status ORDER BY valid_until DESC, user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*repository.UserAdStatus, 0)
	for rows.Next() {
		var s repository.UserAdStatus
		if err := rows.Scan(&s.UserID, &s.ValidUntil, &s.AdViews, &s.LastSeen); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
