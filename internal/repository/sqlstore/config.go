// 文件路径: internal/repository/sqlstore/config.go
// 模块说明: 这是 internal 模块里的 config 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"context"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

const configColumns = `id, name, host, dns_host, sni, payload, type, is_default, cdn, cdn_name, cdn_number,
	notes, note_msg, multiproxy, for_premium, test_priority, operator,
	downloaded, onlines, votes_positive, votes_negative, created_at, updated_at`

type configRepo struct {
	c conn
}

func (r *configRepo) List(ctx context.Context, filter repository.ConfigFilter) ([]*repository.Config, error) {
	var w where
	if filter.Type != "" {
		w.add("lower(type) = lower(?)", filter.Type)
	}
	if filter.ForPremium != nil {
		w.add("for_premium = ?", *filter.ForPremium)
	}
	if filter.Operator != "" {
		w.add("lower(operator) = lower(?)", filter.Operator)
	}
	rows, err := r.c.query(ctx, `SELECT `+configColumns+` FROM configs`+w.String()+` ORDER BY seq ASC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]*repository.Config, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (r *configRepo) FindByID(ctx context.Context, id string) (*repository.Config, error) {
	cfg, err := scanConfig(r.c.queryRow(ctx, `SELECT `+configColumns+` FROM configs WHERE id = ?`, id))
	if err != nil {
		return nil, translateErr(err)
	}
	return cfg, nil
}

func (r *configRepo) Create(ctx context.Context, c *repository.Config) error {
	const stmt = `INSERT INTO configs (` + configColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.c.exec(ctx, stmt,
		c.ID, c.Name, c.Host, c.DNSHost, c.SNI, c.Payload, c.Type, c.Default, c.CDN, c.CDNName, c.CDNNumber,
		c.Notes, c.NoteMsg, c.Multiproxy, c.ForPremium, c.TestPriority, c.Operator,
		c.Downloaded, c.Onlines, c.VotesPositive, c.VotesNegative, c.CreatedAt, c.UpdatedAt,
	)
	return translateErr(err)
}

func (r *configRepo) Update(ctx context.Context, c *repository.Config) error {
	const stmt = `UPDATE configs SET name = ?, host = ?, dns_host = ?, sni = ?, payload = ?, type = ?,
		is_default = ?, cdn = ?, cdn_name = ?, cdn_number = ?, notes = ?, note_msg = ?, multiproxy = ?,
		for_premium = ?, test_priority = ?, operator = ?, downloaded = ?, onlines = ?,
		votes_positive = ?, votes_negative = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.c.exec(ctx, stmt,
		c.Name, c.Host, c.DNSHost, c.SNI, c.Payload, c.Type,
		c.Default, c.CDN, c.CDNName, c.CDNNumber, c.Notes, c.NoteMsg, c.Multiproxy,
		c.ForPremium, c.TestPriority, c.Operator, c.Downloaded, c.Onlines,
		c.VotesPositive, c.VotesNegative, c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return translateErr(err)
	}
	return affectedOrNotFound(res)
}

func (r *configRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.c.exec(ctx, `DELETE FROM configs WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementDownloads 原子地把下载计数加一。
func (r *configRepo) IncrementDownloads(ctx context.Context, id string) error {
	res, err := r.c.exec(ctx, `UPDATE configs SET downloaded = downloaded + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *configRepo) Vote(ctx context.Context, id string, positive bool) error {
	stmt := `UPDATE configs SET votes_negative = votes_negative + 1 WHERE id = ?`
	if positive {
		stmt = `UPDATE configs SET votes_positive = votes_positive + 1 WHERE id = ?`
	}
	res, err := r.c.exec(ctx, stmt, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func scanConfig(scanner rowScanner) (*repository.Config, error) {
	var c repository.Config
	if err := scanner.Scan(
		&c.ID, &c.Name, &c.Host, &c.DNSHost, &c.SNI, &c.Payload, &c.Type, &c.Default, &c.CDN, &c.CDNName, &c.CDNNumber,
		&c.Notes, &c.NoteMsg, &c.Multiproxy, &c.ForPremium, &c.TestPriority, &c.Operator,
		&c.Downloaded, &c.Onlines, &c.VotesPositive, &c.VotesNegative, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
