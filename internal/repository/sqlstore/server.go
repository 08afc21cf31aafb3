// 文件路径: internal/repository/sqlstore/server.go
// 模块说明: 这是 internal 模块里的 server 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

const serverColumns = `id, cloudflare_domain, dnstt_domain, country, city, state, ipv4, ipv6,
	port_http, port_tls, port_udp, port_dnstt, flag, premium, invisible, users_adsed,
	tls, quic, http, dnstt, last_ping, uni_skip, usage, online_users, capacity,
	cdn_number, cdn_name, cdn, cdns, created_at, updated_at`

var protocolColumns = map[string]string{
	"http":  "http",
	"tls":   "tls",
	"quic":  "quic",
	"dnstt": "dnstt",
}

type serverRepo struct {
	c conn
}

func (r *serverRepo) List(ctx context.Context, filter repository.ServerFilter) ([]*repository.Server, error) {
	var w where
	if filter.Country != "" {
		w.add("lower(country) = lower(?)", filter.Country)
	}
	if filter.Premium != nil {
		w.add("premium = ?", *filter.Premium)
	}
	for _, p := range filter.Protocols {
		col, ok := protocolColumns[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return nil, fmt.Errorf("list servers: unknown protocol %q", p)
		}
		w.add(col+" = ?", true)
	}
	query := `SELECT ` + serverColumns + ` FROM servers` + w.String() + ` ORDER BY seq ASC`
	rows, err := r.c.query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	servers := make([]*repository.Server, 0)
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return servers, nil
}

func (r *serverRepo) FindByID(ctx context.Context, id string) (*repository.Server, error) {
	row := r.c.queryRow(ctx, `SELECT `+serverColumns+` FROM servers WHERE id = ?`, id)
	server, err := scanServer(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return server, nil
}

func (r *serverRepo) Create(ctx context.Context, s *repository.Server) error {
	cdns, err := encodeCDNs(s.CDNs)
	if err != nil {
		return fmt.Errorf("encode cdns: %w", err)
	}
	const stmt = `INSERT INTO servers (` + serverColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.c.exec(ctx, stmt,
		s.ID, s.CloudFlareDomain, s.DnsttDomain, s.Country, s.City, s.State, s.IPv4, s.IPv6,
		s.PortHTTP, s.PortTLS, s.PortUDP, s.PortDNSTT, s.Flag, s.Premium, s.Invisible, s.UsersAdsed,
		s.TLS, s.QUIC, s.HTTP, s.DNSTT, s.LastPing, s.UniSkip, s.Usage, s.OnlineUsers, s.Capacity,
		s.CDNNumber, s.CDNName, s.CDN, cdns, s.CreatedAt, s.UpdatedAt,
	)
	return translateErr(err)
}

func (r *serverRepo) Update(ctx context.Context, s *repository.Server) error {
	cdns, err := encodeCDNs(s.CDNs)
	if err != nil {
		return fmt.Errorf("encode cdns: %w", err)
	}
	const stmt = `UPDATE servers SET cloudflare_domain = ?, dnstt_domain = ?, country = ?, city = ?, state = ?,
		ipv4 = ?, ipv6 = ?, port_http = ?, port_tls = ?, port_udp = ?, port_dnstt = ?, flag = ?, premium = ?,
		invisible = ?, users_adsed = ?, tls = ?, quic = ?, http = ?, dnstt = ?, last_ping = ?, uni_skip = ?,
		usage = ?, online_users = ?, capacity = ?, cdn_number = ?, cdn_name = ?, cdn = ?, cdns = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.c.exec(ctx, stmt,
		s.CloudFlareDomain, s.DnsttDomain, s.Country, s.City, s.State,
		s.IPv4, s.IPv6, s.PortHTTP, s.PortTLS, s.PortUDP, s.PortDNSTT, s.Flag, s.Premium,
		s.Invisible, s.UsersAdsed, s.TLS, s.QUIC, s.HTTP, s.DNSTT, s.LastPing, s.UniSkip,
		s.Usage, s.OnlineUsers, s.Capacity, s.CDNNumber, s.CDNName, s.CDN, cdns, s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return translateErr(err)
	}
	return affectedOrNotFound(res)
}

func (r *serverRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.c.exec(ctx, `DELETE FROM servers WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *serverRepo) TouchPing(ctx context.Context, id string, at int64) error {
	res, err := r.c.exec(ctx, `UPDATE servers SET last_ping = ?, updated_at = ? WHERE id = ?`, at, at, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func scanServer(scanner rowScanner) (*repository.Server, error) {
	var (
		s    repository.Server
		cdns string
	)
	if err := scanner.Scan(
		&s.ID, &s.CloudFlareDomain, &s.DnsttDomain, &s.Country, &s.City, &s.State, &s.IPv4, &s.IPv6,
		&s.PortHTTP, &s.PortTLS, &s.PortUDP, &s.PortDNSTT, &s.Flag, &s.Premium, &s.Invisible, &s.UsersAdsed,
		&s.TLS, &s.QUIC, &s.HTTP, &s.DNSTT, &s.LastPing, &s.UniSkip, &s.Usage, &s.OnlineUsers, &s.Capacity,
		&s.CDNNumber, &s.CDNName, &s.CDN, &cdns, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m, err := decodeCDNs(cdns)
	if err != nil {
		return nil, fmt.Errorf("decode cdns for server %s: %w", s.ID, err)
	}
	s.CDNs = m
	return &s, nil
}
