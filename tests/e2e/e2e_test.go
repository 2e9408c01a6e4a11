//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/repository"
)

type authResponse struct {
	User struct {
		GithubLogin string `json:"githubLogin"`
		Name        string `json:"name"`
	} `json:"user"`
	Token string `json:"token"`
}

type photoResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Category string `json:"category"`
	PostedBy string `json:"postedBy"`
}

type queryResult struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"errors"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("PHOTOSHARE_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	login := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	seedUser(t, dbURL, login)

	token := authenticate(t, baseURL, login)

	photo := postPhoto(t, baseURL, token, "e2e smoke shot")
	if photo.PostedBy != login {
		t.Fatalf("expected photo posted by %s, got %s", login, photo.PostedBy)
	}

	result := query(t, baseURL, token, `{
		"select": {
			"totalUsers": {},
			"totalPhotos": {},
			"me": {},
			"allPhotos": {"select": {"id": {}, "name": {}, "postedBy": {}}}
		}
	}`)
	if len(result.Errors) > 0 {
		t.Fatalf("query returned field errors: %+v", result.Errors)
	}

	var me struct {
		GithubLogin string `json:"githubLogin"`
	}
	mustDecode(t, result.Data["me"], &me)
	if me.GithubLogin != login {
		t.Fatalf("expected me to be %s, got %s", login, me.GithubLogin)
	}

	var photos []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		By   struct {
			GithubLogin string `json:"githubLogin"`
		} `json:"postedBy"`
	}
	mustDecode(t, result.Data["allPhotos"], &photos)

	found := false
	for _, p := range photos {
		if p.ID == photo.ID {
			found = true
			if p.By.GithubLogin != login {
				t.Fatalf("expected postedBy %s, got %s", login, p.By.GithubLogin)
			}
		}
	}
	if !found {
		t.Fatalf("posted photo %s not visible through query", photo.ID)
	}
}

func TestE2ESubscriptionDelivery(t *testing.T) {
	baseURL := envOrDefault("PHOTOSHARE_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	login := fmt.Sprintf("e2e-sub-%d", time.Now().UnixNano())
	seedUser(t, dbURL, login)
	token := authenticate(t, baseURL, login)

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/subscriptions/photos?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial subscription stream: %v", err)
	}
	defer conn.Close()

	posted := postPhoto(t, baseURL, token, "e2e subscription shot")

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var event struct {
			Channel string        `json:"channel"`
			Data    photoResponse `json:"data"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read subscription event: %v", err)
		}
		if event.Data.ID == posted.ID {
			if event.Data.PostedBy != login {
				t.Fatalf("event postedBy = %s, want %s", event.Data.PostedBy, login)
			}
			return
		}
	}
}

// TestE2ENoTokenLeak validates that bearer tokens never appear in read
// responses.
func TestE2ENoTokenLeak(t *testing.T) {
	baseURL := envOrDefault("PHOTOSHARE_BASE_URL", "http://localhost:8080")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatalf("DATABASE_URL is required for e2e tests")
	}

	login := fmt.Sprintf("e2e-leak-%d", time.Now().UnixNano())
	seedUser(t, dbURL, login)
	token := authenticate(t, baseURL, login)

	body := rawQuery(t, baseURL, token, `{
		"select": {
			"allUsers": {"select": {"githubLogin": {}, "name": {}, "avatar": {}}},
			"me": {}
		}
	}`)
	if strings.Contains(body, token) {
		t.Error("SECURITY: query response contains the bearer token")
	}

	unknownToken := "gho_fake_" + strings.Repeat("x", 32)
	resp := rawQueryStatus(t, baseURL, unknownToken, `{"select": {"totalUsers": {}}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown token should degrade to anonymous, got %d", resp.StatusCode)
	}
	respBody, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(respBody), unknownToken) {
		t.Error("SECURITY: error path echoed the presented token")
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func seedUser(t *testing.T, dbURL, login string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	user := &model.User{
		GithubLogin: login,
		Name:        "E2E Smoke",
		Avatar:      "https://example.com/avatar.jpg",
		GithubToken: "tok-" + login,
	}
	if err := repo.ReplaceUser(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func authenticate(t *testing.T, baseURL, login string) string {
	t.Helper()

	var resp authResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/auth/user", "", map[string]any{"github_login": login}, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from existing-user auth, got %d", status)
	}
	if resp.Token == "" {
		t.Fatalf("auth response missing token")
	}
	return resp.Token
}

func postPhoto(t *testing.T, baseURL, token, name string) photoResponse {
	t.Helper()

	payload := map[string]any{
		"name":     name,
		"category": "ACTION",
	}

	var resp photoResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/photos", token, payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from photo post, got %d", status)
	}
	if resp.ID == "" || resp.URL == "" {
		t.Fatalf("photo response missing fields: %+v", resp)
	}
	return resp
}

func query(t *testing.T, baseURL, token, doc string) queryResult {
	t.Helper()

	resp := rawQueryStatus(t, baseURL, token, doc)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200 from query, got %d: %s", resp.StatusCode, body)
	}

	var result queryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode query result: %v", err)
	}
	return result
}

func rawQuery(t *testing.T, baseURL, token, doc string) string {
	t.Helper()

	resp := rawQueryStatus(t, baseURL, token, doc)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func rawQueryStatus(t *testing.T, baseURL, token, doc string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/query", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("create query request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("query request: %v", err)
	}
	return resp
}

func mustDecode(t *testing.T, raw json.RawMessage, out any) {
	t.Helper()
	if raw == nil {
		t.Fatalf("missing field in query data")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode field: %v", err)
	}
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
