package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oseayemenre/pagesy-reader/internal/models"
	"github.com/oseayemenre/pagesy-reader/internal/store"
	"github.com/oseayemenre/pagesy-reader/internal/store/storetest"
)

func TestHandleCreateTag(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		insertErr     error
		selectErr     error
		expectedCode  int
		expectedCalls int
		expectedBody  string
	}{
		{name: "should return 400 for a malformed body", body: `{`, expectedCode: http.StatusBadRequest},
		{name: "should return 400 for a blank name", body: `{"name": "  "}`, expectedCode: http.StatusBadRequest},
		{name: "should return 409 when the tag already exists", body: `{"name": "Magic"}`, expectedCode: http.StatusConflict, expectedCalls: 1, expectedBody: "already exists"},
		{name: "should return 409 with the matches when the name is contained in a tag", body: `{"name": "mag"}`, expectedCode: http.StatusConflict, expectedCalls: 1, expectedBody: `"matches":[{`},
		{name: "should return 500 when tags cannot be loaded", body: `{"name": "isekai"}`, selectErr: errors.New("random-error"), expectedCode: http.StatusInternalServerError, expectedCalls: 1},
		{name: "should return 500 when the tag cannot be created", body: `{"name": "isekai"}`, insertErr: errors.New("random-error"), expectedCode: http.StatusInternalServerError, expectedCalls: 2, expectedBody: "Failed to create tag"},
		{name: "should return 201 and create the tag", body: `{"name": "isekai"}`, expectedCode: http.StatusCreated, expectedCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := catalogStore()
			selectTags, insert := s.SelectFunc, s.InsertFunc

			s.SelectFunc = func(ctx context.Context, q store.Query) ([]store.Row, error) {
				if tt.selectErr != nil {
					return nil, tt.selectErr
				}
				if len(q.Filters) != 1 || q.Filters[0].Op != store.OpILike {
					t.Errorf("expected a name filter, got %+v", q.Filters)
				}
				return selectTags(ctx, q)
			}
			s.InsertFunc = func(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
				if tt.insertErr != nil {
					return nil, tt.insertErr
				}
				return insert(ctx, table, rows)
			}

			a := newTestApi(s, nil, signedIn())

			rr := httptest.NewRecorder()
			a.HandleCreateTag(rr, withActor(httptest.NewRequest(http.MethodPost, "/api/v1/tags", strings.NewReader(tt.body))))

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d: %s", tt.expectedCode, rr.Code, rr.Body.String())
			}

			if n := len(s.Calls()); n != tt.expectedCalls {
				t.Fatalf("expected %d store calls, got %d", tt.expectedCalls, n)
			}

			if !strings.Contains(rr.Body.String(), tt.expectedBody) {
				t.Fatalf("expected %q in %s", tt.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandleGetTags(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectedLen int
	}{
		{name: "should list every tag", expectedLen: 1},
		{name: "should search by name", query: "?q=MAG", expectedLen: 1},
		{name: "should return nothing when no name matches", query: "?q=dragon", expectedLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApi(catalogStore(), nil, nil)

			rr := httptest.NewRecorder()
			a.HandleGetTags(rr, httptest.NewRequest(http.MethodGet, "/api/v1/tags"+tt.query, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
			}

			var tags []models.Tag
			if err := json.Unmarshal(rr.Body.Bytes(), &tags); err != nil {
				t.Fatalf("error unmarshalling response: %v", err)
			}

			if len(tags) != tt.expectedLen {
				t.Fatalf("expected %d tags, got %d", tt.expectedLen, len(tags))
			}
		})
	}
}

func TestHandleGetGenres(t *testing.T) {
	tests := []struct {
		name         string
		selectErr    error
		expectedCode int
	}{
		{name: "should return genres", expectedCode: http.StatusOK},
		{name: "should return 500 when genres cannot be loaded", selectErr: errors.New("random-error"), expectedCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &storetest.Store{
				SelectFunc: func(ctx context.Context, q store.Query) ([]store.Row, error) {
					return []store.Row{{"id": "g1", "name": "Fantasy"}}, tt.selectErr
				},
			}

			a := newTestApi(s, nil, nil)

			rr := httptest.NewRecorder()
			a.HandleGetGenres(rr, httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil))

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, rr.Code)
			}
		})
	}
}
