// 文件路径: internal/repository/sqlstore/premium_user.go
// 模块说明: 这是 internal 模块里的 premium_user 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"context"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

const premiumUserColumns = `id, email, transaction_id, device_id, date_start, date_end, months, price_paid,
	suspicious, used, expired, created_at, updated_at`

type premiumUserRepo struct {
	c conn
}

func (r *premiumUserRepo) List(ctx context.Context, filter repository.PremiumUserFilter) ([]*repository.PremiumUser, error) {
	var w where
	if filter.Expired != nil {
		w.add("expired = ?", *filter.Expired)
	}
	if filter.Suspicious != nil {
		w.add("suspicious = ?", *filter.Suspicious)
	}
	if filter.Email != "" {
		w.add("lower(email) = lower(?)", filter.Email)
	}
	return r.list(ctx, w.String()+` ORDER BY seq ASC`, w.args...)
}

func (r *premiumUserRepo) FindByID(ctx context.Context, id string) (*repository.PremiumUser, error) {
	u, err := scanPremiumUser(r.c.queryRow(ctx, `SELECT `+premiumUserColumns+` FROM premium_users WHERE id = ?`, id))
	if err != nil {
		return nil, translateErr(err)
	}
	return u, nil
}

// FindByDeviceID returns the most recent purchase for a device.
func (r *premiumUserRepo) FindByDeviceID(ctx context.Context, deviceID string) (*repository.PremiumUser, error) {
	const query = `SELECT ` + premiumUserColumns + ` FROM premium_users WHERE device_id = ? ORDER BY date_end DESC, seq DESC LIMIT 1`
	u, err := scanPremiumUser(r.c.queryRow(ctx, query, deviceID))
	if err != nil {
		return nil, translateErr(err)
	}
	return u, nil
}

func (r *premiumUserRepo) Create(ctx context.Context, u *repository.PremiumUser) error {
	const stmt = `INSERT INTO premium_users (` + premiumUserColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.c.exec(ctx, stmt,
		u.ID, u.Email, u.TransactionID, u.DeviceID, u.DateStart, u.DateEnd, u.Months, u.PricePaid,
		u.Suspicious, u.Used, u.Expired, u.CreatedAt, u.UpdatedAt,
	)
	return translateErr(err)
}

func (r *premiumUserRepo) Update(ctx context.Context, u *repository.PremiumUser) error {
	const stmt = `UPDATE premium_users SET email = ?, transaction_id = ?, device_id = ?, date_start = ?, date_end = ?,
		months = ?, price_paid = ?, suspicious = ?, used = ?, expired = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.c.exec(ctx, stmt,
		u.Email, u.TransactionID, u.DeviceID, u.DateStart, u.DateEnd,
		u.Months, u.PricePaid, u.Suspicious, u.Used, u.Expired, u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return translateErr(err)
	}
	return affectedOrNotFound(res)
}

func (r *premiumUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.c.exec(ctx, `DELETE FROM premium_users WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListLapsed 找出 dateEnd 已过但仍未标记 expired 的用户。
func (r *premiumUserRepo) ListLapsed(ctx context.Context, nowUnix int64) ([]*repository.PremiumUser, error) {
	return r.list(ctx, ` WHERE date_end < ? AND expired = ? ORDER BY date_end ASC`, nowUnix, false)
}

func (r *premiumUserRepo) list(ctx context.Context, tail string, args ...any) ([]*repository.PremiumUser, error) {
	rows, err := r.c.query(ctx, `SELECT `+premiumUserColumns+` FROM premium_users`+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*repository.PremiumUser, 0)
	for rows.Next() {
		u, err := scanPremiumUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanPremiumUser(scanner rowScanner) (*repository.PremiumUser, error) {
	var u repository.PremiumUser
	if err := scanner.Scan(
		&u.ID, &u.Email, &u.TransactionID, &u.DeviceID, &u.DateStart, &u.DateEnd, &u.Months, &u.PricePaid,
		&u.Suspicious, &u.Used, &u.Expired, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// date 列不落库，总是由 date_start 推导，保证两者一致。
	u.Date = time.Unix(u.DateStart, 0).UTC().Format(time.RFC3339)
	return &u, nil
}
