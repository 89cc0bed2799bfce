// Package token signs the public share links of sales documents.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	docapp "github.com/dealer/backend/internal/application/document"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const shareTokenUse = "document_share"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// ShareClaims identify one document of one tenant
type ShareClaims struct {
	jwt.RegisteredClaims
	TenantID   string `json:"tenant_id"`
	DocumentID string `json:"document_id"`
	Use        string `json:"use"`
}

// ShareTokenService issues and verifies HS256 share tokens
type ShareTokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// Option configures a ShareTokenService
type Option func(*ShareTokenService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *ShareTokenService) {
		s.now = now
	}
}

// NewShareTokenService creates a share token service. An empty secret gets a
// random per-process key, so links stop verifying after a restart; config
// validation requires a real secret in production. A zero expiration issues
// tokens that never expire.
func NewShareTokenService(secret string, expiration time.Duration, issuer string, opts ...Option) (*ShareTokenService, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate share token key: %w", err)
		}
	}
	s := &ShareTokenService{
		secret:     key,
		expiration: expiration,
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for the document
func (s *ShareTokenService) Issue(tenantID, documentID uuid.UUID) (string, error) {
	now := s.now()
	claims := &ShareClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.New().String(),
			Issuer:   s.issuer,
			Subject:  documentID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		TenantID:   tenantID.String(),
		DocumentID: documentID.String(),
		Use:        shareTokenUse,
	}
	if s.expiration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expiration))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies a token and returns the tenant and document it names
func (s *ShareTokenService) Parse(tokenString string) (uuid.UUID, uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ShareClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ShareClaims)
	if !ok || !token.Valid {
		return uuid.Nil, uuid.Nil, ErrInvalidClaims
	}
	if claims.Use != shareTokenUse {
		return uuid.Nil, uuid.Nil, ErrInvalidTokenType
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidClaims
	}
	documentID, err := uuid.Parse(claims.DocumentID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidClaims
	}
	return tenantID, documentID, nil
}

var _ docapp.ShareTokens = (*ShareTokenService)(nil)
