// 文件路径: internal/repository/sqlstore/setting.go
// 模块说明: 这是 internal 模块里的 setting 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"context"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

type settingRepo struct {
	c conn
}

func (r *settingRepo) Get(ctx context.Context, key string) (*repository.Setting, error) {
	var s repository.Setting
	err := r.c.queryRow(ctx, `SELECT key, value, category, updated_at FROM settings WHERE key = ?`, key).
		Scan(&s.Key, &s.Value, &s.Category, &s.UpdatedAt)
	if err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

func (r *settingRepo) Upsert(ctx context.Context, setting *repository.Setting) error {
	const stmt = `INSERT INTO settings(key, value, category, updated_at) VALUES(?, ?, ?, ?)
                  ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category, updated_at = excluded.updated_at`
	_, err := r.c.exec(ctx, stmt, setting.Key, setting.Value, setting.Category, setting.UpdatedAt)
	return err
}

func (r *settingRepo) InsertIfAbsent(ctx context.Context, setting *repository.Setting) (bool, error) {
	const stmt = `INSERT INTO settings(key, value, category, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category, updated_at = excluded.updated_at
		WHERE TRIM(settings.value) = ''`
	res, err := r.c.exec(ctx, stmt, setting.Key, setting.Value, setting.Category, setting.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *settingRepo) List(ctx context.Context) ([]repository.Setting, error) {
	rows, err := r.c.query(ctx, `SELECT key, value, category, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []repository.Setting
	for rows.Next() {
		var s repository.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Category, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
