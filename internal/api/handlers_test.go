package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oseayemenre/pagesy-reader/internal/config"
	"github.com/oseayemenre/pagesy-reader/internal/events"
	"github.com/oseayemenre/pagesy-reader/internal/session"
	"github.com/oseayemenre/pagesy-reader/internal/store"
	"github.com/oseayemenre/pagesy-reader/internal/store/storetest"
)

type testLogger struct{}

func (l *testLogger) Info(msg string, args ...any)  {}
func (l *testLogger) Error(msg string, args ...any) {}
func (l *testLogger) Warn(msg string, args ...any)  {}

type testSessions struct {
	session *session.Session
	err     error
	issued  []session.Actor
	cleared bool
}

func (s *testSessions) Current(r *http.Request) (*session.Session, error) {
	return s.session, s.err
}

func (s *testSessions) Issue(w http.ResponseWriter, actor session.Actor) error {
	s.issued = append(s.issued, actor)
	return nil
}

func (s *testSessions) Clear(w http.ResponseWriter) {
	s.cleared = true
}

type testFeed struct {
	err error
}

func (f *testFeed) ServeWS(w http.ResponseWriter, r *http.Request) error {
	return f.err
}

var testActor = session.Actor{Id: "8b0c1c3e-7a4f-4a53-9b7e-1f0d3c2b1a00", Email: "jane@example.com"}

func signedIn() *testSessions {
	return &testSessions{session: &session.Session{Actor: testActor}}
}

func newTestApi(s store.Store, objects store.ObjectStore, sessions Sessions) *Api {
	if s == nil {
		s = &storetest.Store{}
	}
	if objects == nil {
		objects = &storetest.ObjectStore{}
	}
	if sessions == nil {
		sessions = &testSessions{}
	}

	return New(
		chi.NewRouter(),
		&testLogger{},
		objects,
		s,
		sessions,
		events.Discard{},
		&testFeed{},
		&config.Config{Site_url: "http://localhost:8080/"},
	)
}

func withActor(r *http.Request) *http.Request {
	actor := testActor
	return r.WithContext(session.WithActor(context.Background(), &actor))
}

const (
	genreFantasy = "5f1c2d3e-0000-4000-8000-000000000001"
	genreRomance = "5f1c2d3e-0000-4000-8000-000000000002"
	tagMagic     = "5f1c2d3e-0000-4000-8000-000000000003"
)

// matches applies the id and name filters the handlers send.
func matches(row store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case store.OpIn:
			found := false
			for _, id := range f.Value.([]string) {
				found = found || row["id"] == id
			}
			if !found {
				return false
			}
		case store.OpILike:
			needle := strings.ToLower(strings.Trim(f.Value.(string), "%"))
			if !strings.Contains(strings.ToLower(row["name"].(string)), needle) {
				return false
			}
		}
	}
	return true
}

// catalogStore serves two genres and one tag and echoes inserts, giving
// novels the id n1.
func catalogStore() *storetest.Store {
	catalog := map[string][]store.Row{
		"genres": {{"id": genreFantasy, "name": "Fantasy"}, {"id": genreRomance, "name": "Romance"}},
		"tags":   {{"id": tagMagic, "name": "magic"}},
	}

	return &storetest.Store{
		SelectFunc: func(ctx context.Context, q store.Query) ([]store.Row, error) {
			out := []store.Row{}
			for _, row := range catalog[q.Table] {
				if matches(row, q.Filters) {
					out = append(out, row)
				}
			}
			return out, nil
		},
		InsertFunc: func(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
			switch table {
			case "novels":
				row := store.Row{"id": "n1"}
				for k, v := range rows[0] {
					row[k] = v
				}
				return []store.Row{row}, nil
			case "tags":
				return []store.Row{{"id": "t9", "name": rows[0]["name"]}}, nil
			}
			return rows, nil
		},
	}
}
