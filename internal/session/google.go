package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/oseayemenre/pagesy-reader/internal/config"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

// UseGoogle registers the google provider and the cookie store gothic keeps
// its oauth state in.
func UseGoogle(cfg *config.Config) {
	goth.UseProviders(
		google.New(cfg.Google_client_id, cfg.Google_client_secret, cfg.RedirectURL("auth/google/callback"), "email", "profile"),
	)

	cookieStore := sessions.NewCookieStore([]byte(cfg.Session_secret))
	cookieStore.MaxAge(86400)
	cookieStore.Options.Path = "/"
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = cfg.Store_secure
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = cookieStore
}

func username(u goth.User) string {
	name := u.NickName
	if name == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	return fmt.Sprintf("%s-%s", strings.ToLower(name), uuid.NewString()[:8])
}

// FindOrCreateProfile returns the actor owning u's email, creating the
// profile on first sign in.
func FindOrCreateProfile(ctx context.Context, s store.Store, u goth.User) (Actor, error) {
	if u.Email == "" {
		return Actor{}, fmt.Errorf("provider returned no email")
	}

	rows, err := s.Select(ctx, store.Query{
		Table:   "profiles",
		Columns: []string{"id", "email"},
		Filters: []store.Filter{store.Eq("email", u.Email)},
		Limit:   1,
	})
	if err != nil {
		return Actor{}, fmt.Errorf("error checking profile: %w", err)
	}

	if len(rows) == 0 {
		profile := store.Row{
			"email":    u.Email,
			"username": username(u),
		}
		if u.Name != "" {
			profile["display_name"] = u.Name
		}
		if u.AvatarURL != "" {
			profile["avatar_url"] = u.AvatarURL
		}

		rows, err = s.Insert(ctx, "profiles", []store.Row{profile})
		if err != nil {
			return Actor{}, fmt.Errorf("error creating profile: %w", err)
		}

		if len(rows) == 0 {
			return Actor{}, fmt.Errorf("error creating profile: no row returned")
		}
	}

	var actor Actor
	if err := store.Decode(rows[0], &actor); err != nil {
		return Actor{}, err
	}

	return actor, nil
}
