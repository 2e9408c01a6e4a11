package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/photoshare/photoshare/internal/auth"
	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/resolver"
)

func newQueryHandler(store *memStore) *QueryHandler {
	r := resolver.New(store, testLogger(), nil, 5, 1000)
	return NewQueryHandler(r, testLogger())
}

func fixtureStore() *memStore {
	return &memStore{
		users: []*model.User{
			{GithubLogin: "mParks", Name: "Mike Parks", GithubToken: "tok-mparks"},
			{GithubLogin: "gPlake", Name: "Glen Plake", GithubToken: "tok-gplake"},
		},
		photos: []*model.Photo{
			{ID: 1, ExternalID: "01J0000000000000000000001", Name: "Dropping the Heart Chute", Category: model.CategoryAction, UserID: "gPlake"},
		},
		tags: []*model.Tag{{PhotoID: 1, UserID: "mParks"}},
	}
}

func TestQueryHandler_Query(t *testing.T) {
	t.Parallel()

	h := newQueryHandler(fixtureStore())

	body := `{"select":{"totalUsers":{},"allPhotos":{"select":{"name":{},"postedBy":{}}}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			TotalUsers int `json:"totalUsers"`
			AllPhotos  []struct {
				Name     string `json:"name"`
				PostedBy struct {
					GithubLogin string `json:"githubLogin"`
				} `json:"postedBy"`
			} `json:"allPhotos"`
		} `json:"data"`
		Errors []resolver.FieldError `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if resp.Data.TotalUsers != 2 {
		t.Errorf("totalUsers = %d, want 2", resp.Data.TotalUsers)
	}
	if len(resp.Data.AllPhotos) != 1 || resp.Data.AllPhotos[0].PostedBy.GithubLogin != "gPlake" {
		t.Errorf("allPhotos = %+v", resp.Data.AllPhotos)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("errors = %v, want none", resp.Errors)
	}

	if strings.Contains(rec.Body.String(), "tok-") {
		t.Error("response must never contain access tokens")
	}
}

func TestQueryHandler_Me(t *testing.T) {
	t.Parallel()

	store := fixtureStore()
	h := newQueryHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"select":{"me":{}}}`))
	req = req.WithContext(auth.ContextWithIdentity(req.Context(), store.users[0]))
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	var resp struct {
		Data struct {
			Me *struct {
				GithubLogin string `json:"githubLogin"`
			} `json:"me"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.Me == nil || resp.Data.Me.GithubLogin != "mParks" {
		t.Errorf("me = %+v, want mParks", resp.Data.Me)
	}
}

func TestQueryHandler_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{
			name:     "malformed json",
			body:     `{"select"`,
			wantCode: "INVALID_JSON",
		},
		{
			name:     "empty selection",
			body:     `{"select":{}}`,
			wantCode: "VALIDATION_REJECTED",
		},
		{
			name:     "unknown field",
			body:     `{"select":{"allTags":{}}}`,
			wantCode: "VALIDATION_REJECTED",
		},
		{
			name:     "cost beyond limit",
			body:     `{"select":{"allPhotos":{"select":{"taggedUsers":{"select":{"inPhotos":{}}}}}}}`,
			wantCode: "VALIDATION_REJECTED",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newQueryHandler(fixtureStore())
			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Query(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if code, _ := decodeError(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}
