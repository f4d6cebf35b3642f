package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/oseayemenre/pagesy-reader/internal/session"
)

func loginReason(t *testing.T, location string) string {
	t.Helper()

	u, err := url.Parse(location)
	if err != nil {
		t.Fatalf("error parsing location: %v", err)
	}

	if u.Path != "/auth/login" {
		t.Fatalf("expected a redirect to /auth/login, got %s", location)
	}

	return u.Query().Get("error")
}

func TestHandleAuthCallback(t *testing.T) {
	tests := []struct {
		name           string
		sessions       *testSessions
		expectedReason string
		expectedHome   bool
	}{
		{
			name:           "should redirect to login when the session check fails",
			sessions:       &testSessions{err: errors.New("provider unreachable")},
			expectedReason: "Unable to authenticate",
		},
		{
			name:           "should redirect to login without a session",
			sessions:       &testSessions{},
			expectedReason: "No session found",
		},
		{
			name:         "should redirect home with a session",
			sessions:     signedIn(),
			expectedHome: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApi(nil, nil, tt.sessions)

			rr := httptest.NewRecorder()
			a.HandleAuthCallback(rr, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

			if rr.Code != http.StatusFound {
				t.Fatalf("expected %d, got %d", http.StatusFound, rr.Code)
			}

			location := rr.Header().Get("Location")

			if tt.expectedHome {
				if location != "/" {
					t.Fatalf("expected /, got %s", location)
				}
				return
			}

			if reason := loginReason(t, location); reason != tt.expectedReason {
				t.Fatalf("expected %q, got %q", tt.expectedReason, reason)
			}
		})
	}
}

func TestHandleLogout(t *testing.T) {
	sessions := signedIn()
	a := newTestApi(nil, nil, sessions)

	rr := httptest.NewRecorder()
	a.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected %d, got %d", http.StatusNoContent, rr.Code)
	}

	if !sessions.cleared {
		t.Fatal("expected session cookies to be cleared")
	}
}

func TestSessionMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		sessions     *testSessions
		method       string
		path         string
		expectedCode int
	}{
		{name: "should redirect the creation form to login", sessions: &testSessions{}, method: http.MethodGet, path: "/api/v1/novels/new", expectedCode: http.StatusFound},
		{name: "should redirect creation to login on a broken session", sessions: &testSessions{err: session.ErrInvalidToken}, method: http.MethodPost, path: "/api/v1/novels", expectedCode: http.StatusFound},
		{name: "should reject /me without a session", sessions: &testSessions{}, method: http.MethodGet, path: "/api/v1/me", expectedCode: http.StatusUnauthorized},
		{name: "should return the actor", sessions: signedIn(), method: http.MethodGet, path: "/api/v1/me", expectedCode: http.StatusOK},
		{name: "should reject tag creation without a session", sessions: &testSessions{}, method: http.MethodPost, path: "/api/v1/tags", expectedCode: http.StatusUnauthorized},
		{name: "should serve the creation form", sessions: signedIn(), method: http.MethodGet, path: "/api/v1/novels/new", expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApi(catalogStore(), nil, tt.sessions)
			a.RegisterRoutes()

			rr := httptest.NewRecorder()
			a.router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, rr.Code)
			}

			if rr.Code == http.StatusFound {
				if reason := loginReason(t, rr.Header().Get("Location")); reason != MsgLoginRequired {
					t.Fatalf("expected %q, got %q", MsgLoginRequired, reason)
				}
			}
		})
	}
}

func TestSessionRenewal(t *testing.T) {
	provider := session.NewJWTProvider("secret", false)

	refresh, err := session.CreateJWTToken(testActor, "secret", session.RefreshToken, session.RefreshTTL)
	if err != nil {
		t.Fatal(err)
	}

	access, err := session.CreateJWTToken(testActor, "secret", session.AccessToken, session.AccessTTL)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		cookies       []*http.Cookie
		expectedCode  int
		expectRenewed bool
	}{
		{
			name:          "should renew cookies from the refresh token",
			cookies:       []*http.Cookie{{Name: session.RefreshCookie, Value: refresh}},
			expectedCode:  http.StatusOK,
			expectRenewed: true,
		},
		{
			name:         "should leave a live access token alone",
			cookies:      []*http.Cookie{{Name: session.AccessCookie, Value: access}},
			expectedCode: http.StatusOK,
		},
		{
			name:         "should reject a refresh token sent as the access token",
			cookies:      []*http.Cookie{{Name: session.AccessCookie, Value: refresh}},
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApi(nil, nil, provider)
			a.RegisterRoutes()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}

			rr := httptest.NewRecorder()
			a.router.ServeHTTP(rr, req)

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, rr.Code)
			}

			renewed := false
			for _, c := range rr.Result().Cookies() {
				if c.Name == session.AccessCookie && c.Value != "" {
					renewed = true
				}
			}

			if renewed != tt.expectRenewed {
				t.Fatalf("expected renewed %v, got %v", tt.expectRenewed, renewed)
			}
		})
	}
}
