// Package token signs and verifies the JWTs that operators present to the admin API.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TypeOperator marks tokens minted for dashboard operators.
const TypeOperator = "operator"

var (
	// ErrInvalidToken 表示签名、签发方、受众或令牌类型不对。
	ErrInvalidToken = errors.New("invalid token / 无效的 token")
	// ErrExpiredToken 表示令牌超出允许的过期宽限。
	ErrExpiredToken = errors.New("token expired / token 已过期")
	// ErrNoSubject 表示签发时没有给出运营人员名称。
	ErrNoSubject = errors.New("token subject is required / token subject 不能为空")
)

// Claims 是运营令牌的载荷。SessionID 对应 CLI 里保存的一次登录。
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	SessionID string `json:"sid"`
}

// Options 配置 Token 管理器。
type Options struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration // 默认 1 小时
	Leeway     time.Duration
	Now        func() time.Time
}

// Manager 负责签发和校验运营人员使用的 HS256 JWT。
type Manager struct {
	secret []byte
	issuer string
	aud    string
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewManager 组装 JWT 管理器。
func NewManager(opts Options) (*Manager, error) {
	if len(opts.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required / 签名密钥不能为空")
	}
	m := &Manager{
		secret: append([]byte(nil), opts.SigningKey...),
		issuer: strings.TrimSpace(opts.Issuer),
		aud:    strings.TrimSpace(opts.Audience),
		ttl:    opts.TTL,
		now:    opts.Now,
	}
	if m.ttl <= 0 {
		m.ttl = time.Hour
	}
	if m.now == nil {
		m.now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(max(opts.Leeway, 0)),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	}
	if m.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(m.issuer))
	}
	if m.aud != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(m.aud))
	}
	m.parser = jwt.NewParser(parserOpts...)
	return m, nil
}

// IssueOperator 为运营人员签发令牌。ttl <= 0 时使用默认有效期。
func (m *Manager) IssueOperator(name string, ttl time.Duration) (string, *Claims, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, ErrNoSubject
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := m.now().UTC().Truncate(time.Second)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: TypeOperator,
		SessionID: uuid.NewString(),
	}
	if m.aud != "" {
		claims.Audience = jwt.ClaimStrings{m.aud}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse 校验签名和标准声明，并要求令牌类型是 operator。
func (m *Manager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.TokenType != TypeOperator:
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.TokenType)
	}
	return claims, nil
}
