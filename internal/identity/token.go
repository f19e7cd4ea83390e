package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates bearer access tokens from single-use recovery links.
type TokenKind string

const (
	TokenAccess   TokenKind = "access"
	TokenRecovery TokenKind = "recovery"
)

// Claims carried by every token. ID (jti) names the server-side session
// or recovery record.
type Claims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenSigner issues and validates HS256 tokens
type TokenSigner struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewTokenSigner(secretKey []byte, issuer string) *TokenSigner {
	return &TokenSigner{secretKey: secretKey, issuer: issuer, now: time.Now}
}

// Sign returns a token for userID and a fresh token id.
func (s *TokenSigner) Sign(userID string, kind TokenKind, ttl time.Duration) (token, tokenID string, expiresAt time.Time, err error) {
	tokenID = uuid.NewString()
	now := s.now()
	expiresAt = now.Add(ttl)

	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, tokenID, expiresAt, nil
}

// Parse validates signature, expiry and kind.
func (s *TokenSigner) Parse(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("expected %s token, got %q", kind, claims.Kind)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("missing sub or jti claim")
	}
	return claims, nil
}
