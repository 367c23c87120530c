// Package auth resolves the current user of a request from a JWT bearer
// token or a configured API key.
package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"atsscorer/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued and accepted by the service.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService requires a non-empty secret.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "JWT secret is required to issue or validate tokens", nil)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for userID. A zero TTL uses the service default.
func (s *TokenService) Issue(userID uuid.UUID, email string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.NewInternalError("TOKEN_SIGN_FAILED", "failed to sign token", err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and checks signature, issuer and lifetime.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.NewAuthError(errors.ErrCodeTokenInvalid, "token is empty", nil)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.NewAuthError(errors.ErrCodeTokenInvalid, describeTokenError(err), err)
	}
	if !token.Valid {
		return nil, errors.NewAuthError(errors.ErrCodeTokenInvalid, "token is not valid", nil)
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.NewAuthError(errors.ErrCodeTokenInvalid, "token has no user", nil)
	}
	return claims, nil
}

func describeTokenError(err error) string {
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid token signature"
	case stderrors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case stderrors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "token issued by an unknown issuer"
	default:
		return "failed to parse token"
	}
}
