package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/auth/token"
	"github.com/creamcroissant/vpnadmin/internal/cache"
	"github.com/creamcroissant/vpnadmin/internal/security"
)

// OperatorClaims 描述一个已校验的运营人员令牌。
type OperatorClaims struct {
	Subject   string    `json:"subject"`
	SessionID string    `json:"sessionId"`
	TokenID   string    `json:"tokenId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssuedToken is a freshly minted operator token.
type IssuedToken struct {
	Token  string         `json:"token"`
	Claims OperatorClaims `json:"claims"`
}

// SessionService 签发、校验和吊销运营人员令牌，替代登录页面。
type SessionService interface {
	Issue(ctx context.Context, operator string, ttl time.Duration) (*IssuedToken, error)
	Verify(ctx context.Context, rawToken string) (*OperatorClaims, error)
	Revoke(ctx context.Context, rawToken string) error
}

type sessionService struct {
	tokens  *token.Manager
	revoked cache.Store
	audit   security.Recorder
}

// NewSessionService wires the token manager. A nil cache disables revocation.
func NewSessionService(tokens *token.Manager, store cache.Store, audit security.Recorder) SessionService {
	var revoked cache.Store
	if store != nil {
		revoked = store.Namespace("session").Namespace("revoked")
	}
	return &sessionService{tokens: tokens, revoked: revoked, audit: audit}
}

func (s *sessionService) Issue(ctx context.Context, operator string, ttl time.Duration) (*IssuedToken, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return nil, fmt.Errorf("%w: operator name is required", ErrInvalidInput)
	}
	raw, claims, err := s.tokens.IssueOperator(operator, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue operator token: %w", err)
	}
	if s.audit != nil {
		s.audit.Record(ctx, security.Event{Kind: "session.issue", ActorID: operator, EntityID: claims.ID})
	}
	return &IssuedToken{Token: raw, Claims: toOperatorClaims(claims)}, nil
}

func (s *sessionService) Verify(ctx context.Context, rawToken string) (*OperatorClaims, error) {
	claims, err := s.parse(rawToken)
	if err != nil {
		return nil, err
	}
	if s.revoked != nil {
		if _, gone := s.revoked.Get(ctx, claims.ID); gone {
			return nil, ErrUnauthorized
		}
	}
	out := toOperatorClaims(claims)
	return &out, nil
}

// Revoke 把令牌 ID 记入缓存直到令牌自然过期。
func (s *sessionService) Revoke(ctx context.Context, rawToken string) error {
	claims, err := s.parse(rawToken)
	if err != nil {
		return err
	}
	if s.revoked == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	s.revoked.Set(ctx, claims.ID, true, ttl)
	if s.audit != nil {
		s.audit.Record(ctx, security.Event{Kind: "session.revoke", ActorID: claims.Subject, EntityID: claims.ID})
	}
	return nil
}

func (s *sessionService) parse(rawToken string) (*token.Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) || errors.Is(err, token.ErrInvalidToken) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func toOperatorClaims(c *token.Claims) OperatorClaims {
	out := OperatorClaims{Subject: c.Subject, SessionID: c.SessionID, TokenID: c.ID}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
