package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		SigningKey: []byte("test-secret"),
		Issuer:     "vpnadmin",
		Audience:   "vpnadmin-admin",
		TTL:        time.Hour,
		Now:        now,
	})
	require.NoError(t, err)
	return m
}

func TestIssueOperatorAndParse(t *testing.T) {
	m := newTestManager(t, nil)
	signed, claims, err := m.IssueOperator(" ops ", 0)
	require.NoError(t, err)
	assert.Equal(t, TypeOperator, claims.TokenType)
	assert.NotEmpty(t, claims.SessionID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	parsed, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops", parsed.Subject)
	assert.Equal(t, claims.SessionID, parsed.SessionID)
}

func TestParseRejectsForeignKey(t *testing.T) {
	m := newTestManager(t, nil)
	other, err := NewManager(Options{SigningKey: []byte("other"), Issuer: "vpnadmin", Audience: "vpnadmin-admin"})
	require.NoError(t, err)

	signed, _, err := other.IssueOperator("ops", 0)
	require.NoError(t, err)
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpiresWithClock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, func() time.Time { return now })

	signed, _, err := m.IssueOperator("ops", time.Minute)
	require.NoError(t, err)
	_, err = m.Parse(signed)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseRejectsOtherTokenTypes(t *testing.T) {
	m := newTestManager(t, nil)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vpnadmin",
			Subject:   "ops",
			Audience:  jwt.ClaimStrings{"vpnadmin-admin"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: "refresh",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresSubject(t *testing.T) {
	m := newTestManager(t, nil)
	_, _, err := m.IssueOperator("  ", 0)
	assert.ErrorIs(t, err, ErrNoSubject)
}
