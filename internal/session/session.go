// Package session resolves who is signed in from the request cookies.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

type Actor struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	Actor      Actor     `json:"actor"`
	Expires_at time.Time `json:"expires_at"`

	// Refreshed is set when the session came from the refresh cookie; the
	// caller should issue fresh cookies.
	Refreshed bool `json:"-"`
}

// Provider reports the current session. A request without one yields
// (nil, nil); an error means the session could not be checked.
type Provider interface {
	Current(r *http.Request) (*Session, error)
}

type JWTProvider struct {
	secret string
	secure bool
}

func NewJWTProvider(secret string, secure bool) *JWTProvider {
	return &JWTProvider{
		secret: secret,
		secure: secure,
	}
}

// Current reads the access cookie and falls back to the refresh cookie when
// the access token is missing or expired. Expired tokens count as no
// session.
func (p *JWTProvider) Current(r *http.Request) (*Session, error) {
	s, err := p.read(r, AccessCookie, AccessToken)
	if s != nil || err != nil {
		return s, err
	}

	s, err = p.read(r, RefreshCookie, RefreshToken)
	if s != nil {
		s.Refreshed = true
	}

	return s, err
}

func (p *JWTProvider) read(r *http.Request, name string, kind TokenKind) (*Session, error) {
	token, err := r.Cookie(name)

	if errors.Is(err, http.ErrNoCookie) || (err == nil && token.Value == "") {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	claims, err := DecodeJWTToken(token.Value, p.secret, kind)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s := &Session{
		Actor: Actor{Id: claims.Id, Email: claims.Email},
	}

	if claims.ExpiresAt != nil {
		s.Expires_at = claims.ExpiresAt.Time
	}

	return s, nil
}

func (p *JWTProvider) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// Issue sets the access and refresh cookies for actor.
func (p *JWTProvider) Issue(w http.ResponseWriter, actor Actor) error {
	access_token, err := CreateJWTToken(actor, p.secret, AccessToken, AccessTTL)
	if err != nil {
		return err
	}

	refresh_token, err := CreateJWTToken(actor, p.secret, RefreshToken, RefreshTTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, p.cookie(AccessCookie, access_token, int(AccessTTL.Seconds())))
	http.SetCookie(w, p.cookie(RefreshCookie, refresh_token, int(RefreshTTL.Seconds())))

	return nil
}

func (p *JWTProvider) Clear(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie(AccessCookie, "", -1))
	http.SetCookie(w, p.cookie(RefreshCookie, "", -1))
}

type contextKey struct{}

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

func ActorFrom(ctx context.Context) *Actor {
	actor, _ := ctx.Value(contextKey{}).(*Actor)
	return actor
}
