// Package auth verifies the bearer tokens presented to the API. Tokens are
// issued by the authentication service; this service only checks them.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrInvalidRole      = errors.New("missing or unknown role in claims")
)

// Claims carries the caller's identity and operational role
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Actor converts the claims into the domain actor
func (c *Claims) Actor() (identity.Actor, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return identity.Actor{}, ErrMissingUserID
	}
	role, err := identity.ParseRole(c.Role)
	if err != nil {
		return identity.Actor{}, ErrInvalidRole
	}
	return identity.NewActor(userID, role)
}

// JWTService signs and verifies HS256 tokens
type JWTService struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

// NewJWTService creates a JWTService
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		clockSkew: cfg.ClockSkew,
	}
}

// Issue signs a token for the given user. Used by tooling and tests; the
// production issuer shares the secret.
func (s *JWTService) Issue(userID uuid.UUID, role identity.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID.String(),
		Role:   role.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate parses and verifies a token
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
