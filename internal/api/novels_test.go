package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/oseayemenre/pagesy-reader/internal/browse"
	"github.com/oseayemenre/pagesy-reader/internal/novels"
	"github.com/oseayemenre/pagesy-reader/internal/store"
	"github.com/oseayemenre/pagesy-reader/internal/store/storetest"
)

func TestHandleBrowse(t *testing.T) {
	row := store.Row{
		"id":          "n1",
		"title":       "Stars",
		"description": "A story",
		"status":      "ongoing",
		"created_at":  time.Now(),
		"updated_at":  time.Now(),
		"author":      map[string]any{"username": "jane"},
	}

	tests := []struct {
		name         string
		query        string
		selectErr    error
		expectedCode int
		expectedLen  int
		expectError  bool
	}{
		{name: "should return both tabs", expectedCode: http.StatusOK, expectedLen: 1},
		{name: "should filter by q", query: "?q=JANE", expectedCode: http.StatusOK, expectedLen: 1},
		{name: "should show the empty state when nothing matches", query: "?q=dragons", expectedCode: http.StatusOK, expectedLen: 0},
		{name: "should return 500 and no cards when loading fails", selectErr: errors.New("db down"), expectedCode: http.StatusInternalServerError, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &storetest.Store{
				SelectFunc: func(ctx context.Context, q store.Query) ([]store.Row, error) {
					return []store.Row{row}, tt.selectErr
				},
			}

			a := newTestApi(s, nil, nil)

			rr := httptest.NewRecorder()
			a.HandleBrowse(rr, httptest.NewRequest(http.MethodGet, "/api/v1/novels"+tt.query, nil))

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, rr.Code)
			}

			var view browse.View
			if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
				t.Fatalf("error unmarshalling response: %v", err)
			}

			if (view.Error != nil) != tt.expectError {
				t.Fatalf("expected error notice %v, got %+v", tt.expectError, view.Error)
			}

			if len(view.Recent.Novels) != tt.expectedLen || len(view.All.Novels) != tt.expectedLen {
				t.Fatalf("expected %d cards per tab, got %d and %d", tt.expectedLen, len(view.Recent.Novels), len(view.All.Novels))
			}

			if !tt.expectError && tt.expectedLen == 0 && view.Recent.Empty == nil {
				t.Fatal("expected an empty state notice")
			}
		})
	}
}

func TestHandleGetNovel(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		rows         []store.Row
		expectedCode int
	}{
		{name: "should return 400 for a malformed id", id: "nope", expectedCode: http.StatusBadRequest},
		{name: "should return 404 for an unknown novel", id: testActor.Id, rows: []store.Row{}, expectedCode: http.StatusNotFound},
		{name: "should return the novel", id: testActor.Id, rows: []store.Row{{"id": testActor.Id, "title": "Stars"}}, expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &storetest.Store{
				SelectFunc: func(ctx context.Context, q store.Query) ([]store.Row, error) {
					return tt.rows, nil
				},
			}

			a := newTestApi(s, nil, nil)
			a.RegisterRoutes()

			rr := httptest.NewRecorder()
			a.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/novels/"+tt.id, nil))

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, rr.Code)
			}
		})
	}
}

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

func novelForm(t *testing.T, fields map[string][]string, cover []byte, coverName string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, vals := range fields {
		for _, v := range vals {
			writer.WriteField(key, v)
		}
	}

	if cover != nil {
		file, _ := writer.CreateFormFile("cover", coverName)
		file.Write(cover)
	}

	writer.Close()

	return body, writer.FormDataContentType()
}

func failingTable(s *storetest.Store, table string) *storetest.Store {
	list := s.SelectFunc
	s.SelectFunc = func(ctx context.Context, q store.Query) ([]store.Row, error) {
		if q.Table == table {
			return nil, errors.New("random-error")
		}
		return list(ctx, q)
	}
	return s
}

func TestHandleCreateNovel(t *testing.T) {
	valid := map[string][]string{
		"title":       {"Stars"},
		"description": {"A story about stars"},
		"status":      {"ongoing"},
		"genres":      {genreFantasy, genreRomance},
		"tags":        {tagMagic},
	}

	with := func(key string, vals ...string) map[string][]string {
		out := map[string][]string{}
		for k, v := range valid {
			out[k] = v
		}
		if vals == nil {
			delete(out, key)
		} else {
			out[key] = vals
		}
		return out
	}

	tests := []struct {
		name             string
		fields           map[string][]string
		cover            []byte
		coverName        string
		store            func() *storetest.Store
		uploadErr        error
		expectedCode     int
		expectedWarnings int
		expectedCalls    int
		expectedBody     string
	}{
		{
			name:          "should return 400 without a title and call nothing",
			fields:        with("title", "   "),
			expectedCode:  http.StatusBadRequest,
			expectedCalls: 0,
			expectedBody:  "Title is required",
		},
		{
			name:          "should return 400 without a genre and call nothing",
			fields:        with("genres"),
			expectedCode:  http.StatusBadRequest,
			expectedCalls: 0,
			expectedBody:  "Select at least one genre",
		},
		{
			name:          "should return 400 for a malformed genre id and call nothing",
			fields:        with("genres", "g404"),
			expectedCode:  http.StatusBadRequest,
			expectedCalls: 0,
		},
		{
			name:          "should return 400 for an unknown status and call nothing",
			fields:        with("status", "abandoned"),
			expectedCode:  http.StatusBadRequest,
			expectedCalls: 0,
		},
		{
			name:          "should return 413 if the cover is over 5MB and call nothing",
			fields:        valid,
			cover:         append(append([]byte{}, jpeg...), make([]byte, novels.MaxCoverSize)...),
			coverName:     "cover.jpg",
			expectedCode:  http.StatusRequestEntityTooLarge,
			expectedCalls: 0,
		},
		{
			name:          "should return 400 if the cover is not an image and call nothing",
			fields:        valid,
			cover:         []byte("%PDF-1.4 not a picture"),
			coverName:     "cover.pdf",
			expectedCode:  http.StatusBadRequest,
			expectedCalls: 0,
		},
		{
			name:          "should return 400 for a genre that does not exist",
			fields:        with("genres", "5f1c2d3e-0000-4000-8000-0000000000ff"),
			expectedCode:  http.StatusBadRequest,
			expectedCalls: 2,
			expectedBody:  "Unknown genre",
		},
		{
			name:          "should return 500 if submitted tags cannot be loaded",
			fields:        valid,
			store:         func() *storetest.Store { return failingTable(catalogStore(), "tags") },
			expectedCode:  http.StatusInternalServerError,
			expectedCalls: 2,
			expectedBody:  novels.CatalogMessage,
		},
		{
			name:          "should create without tags while tags cannot be loaded",
			fields:        with("tags"),
			store:         func() *storetest.Store { return failingTable(catalogStore(), "tags") },
			expectedCode:  http.StatusCreated,
			expectedCalls: 3,
		},
		{
			name:   "should return 500 if the novel cannot be created",
			fields: valid,
			store: func() *storetest.Store {
				s := catalogStore()
				s.InsertFunc = func(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
					return nil, errors.New("random-error")
				}
				return s
			},
			expectedCode:  http.StatusInternalServerError,
			expectedCalls: 3,
			expectedBody:  novels.FailedMessage,
		},
		{
			name:   "should return 201 with a warning if genres cannot be linked",
			fields: valid,
			store: func() *storetest.Store {
				s := catalogStore()
				insert := s.InsertFunc
				s.InsertFunc = func(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
					if table == "novel_genres" {
						return nil, errors.New("random-error")
					}
					return insert(ctx, table, rows)
				}
				return s
			},
			expectedCode:     http.StatusCreated,
			expectedWarnings: 1,
			expectedCalls:    5,
		},
		{
			name:             "should return 201 with a warning if the cover upload fails",
			fields:           valid,
			cover:            jpeg,
			coverName:        "cover.jpg",
			uploadErr:        errors.New("random-error"),
			expectedCode:     http.StatusCreated,
			expectedWarnings: 1,
			expectedCalls:    5,
		},
		{
			name:          "should return 201 and create the novel",
			fields:        valid,
			cover:         jpeg,
			coverName:     "cover.jpg",
			expectedCode:  http.StatusCreated,
			expectedCalls: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := catalogStore()
			if tt.store != nil {
				s = tt.store()
			}

			a := newTestApi(s, &storetest.ObjectStore{Err: tt.uploadErr}, signedIn())

			body, contentType := novelForm(t, tt.fields, tt.cover, tt.coverName)

			req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/novels", body))
			req.Header.Set("Content-Type", contentType)

			rr := httptest.NewRecorder()

			a.HandleCreateNovel(rr, req)

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d: %s", tt.expectedCode, rr.Code, rr.Body.String())
			}

			if n := len(s.Calls()); n != tt.expectedCalls {
				t.Fatalf("expected %d store calls, got %d: %+v", tt.expectedCalls, n, s.Calls())
			}

			if !strings.Contains(rr.Body.String(), tt.expectedBody) {
				t.Fatalf("expected %q in %s", tt.expectedBody, rr.Body.String())
			}

			if rr.Code == http.StatusCreated {
				var res createNovelResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
					t.Fatalf("error unmarshalling response: %v", err)
				}

				if res.Redirect != "/author/novels/n1/edit" || rr.Header().Get("Location") != res.Redirect {
					t.Fatalf("unexpected redirect %q", res.Redirect)
				}

				if len(res.Warnings) != tt.expectedWarnings {
					t.Fatalf("expected %d warnings, got %d", tt.expectedWarnings, len(res.Warnings))
				}
			}
		})
	}
}

func TestHandleCreateNovelRequiresActor(t *testing.T) {
	a := newTestApi(catalogStore(), nil, nil)

	rr := httptest.NewRecorder()
	a.HandleCreateNovel(rr, httptest.NewRequest(http.MethodPost, "/api/v1/novels", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("expected %d, got %d", http.StatusFound, rr.Code)
	}
}

func TestHandleNewNovelForm(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		store          *storetest.Store
		expectedGenres int
		expectedTags   int
		expectedChips  []string
		expectedWarns  int
	}{
		{
			name:           "should return both catalogs",
			store:          catalogStore(),
			expectedGenres: 2,
			expectedTags:   1,
			expectedChips:  []string{},
		},
		{
			name:           "should return the preselected chips",
			query:          "?genres=" + genreRomance + "," + genreFantasy + "&genres=nope&tags=" + tagMagic,
			store:          catalogStore(),
			expectedGenres: 2,
			expectedTags:   1,
			expectedChips:  []string{"Romance", "Fantasy", "magic"},
		},
		{
			name:           "should keep genres when tags fail",
			query:          "?tags=" + tagMagic,
			store:          failingTable(catalogStore(), "tags"),
			expectedGenres: 2,
			expectedChips:  []string{},
			expectedWarns:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApi(tt.store, nil, nil)

			rr := httptest.NewRecorder()
			a.HandleNewNovelForm(rr, withActor(httptest.NewRequest(http.MethodGet, "/api/v1/novels/new"+tt.query, nil)))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected %d, got %d", http.StatusOK, rr.Code)
			}

			var res newNovelResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
				t.Fatalf("error unmarshalling response: %v", err)
			}

			if len(res.Genres) != tt.expectedGenres || len(res.Tags) != tt.expectedTags || len(res.Warnings) != tt.expectedWarns {
				t.Fatalf("unexpected catalog %+v", res)
			}

			chips := []string{}
			for _, c := range append(res.Selected_genres, res.Selected_tags...) {
				chips = append(chips, c.Label)
			}

			if !reflect.DeepEqual(chips, tt.expectedChips) {
				t.Fatalf("expected chips %v, got %v", tt.expectedChips, chips)
			}
		})
	}
}
