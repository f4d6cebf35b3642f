package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "pagesy"
	AccessTTL  = 24 * time.Hour
	RefreshTTL = 30 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid session token")

// TokenKind is carried as the token audience so a refresh token is never
// accepted where an access token is expected.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

type UserClaims struct {
	Id    string `json:"id"`
	Email string `json:"email"`
	*jwt.RegisteredClaims
}

func CreateJWTToken(actor Actor, secret string, kind TokenKind, ttl time.Duration) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		Id:    actor.Id,
		Email: actor.Email,
		RegisteredClaims: &jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actor.Id,
			Audience:  jwt.ClaimStrings{string(kind)},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString([]byte(secret))

	if err != nil {
		return "", fmt.Errorf("error creating jwt token: %v", err)
	}

	return token, nil
}

// DecodeJWTToken verifies token as a kind token. Expired tokens fail with
// an error that also matches jwt.ErrTokenExpired.
func DecodeJWTToken(token string, secret string, kind TokenKind) (*UserClaims, error) {
	claims := &UserClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithAudience(string(kind)))

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Id == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
