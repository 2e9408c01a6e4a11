package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newProviderStub stands in for both the token endpoint and the API host.
func newProviderStub(t *testing.T, tokenHandler, userHandler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", tokenHandler)
	mux.HandleFunc("/user", userHandler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		AuthURL:      srv.URL + "/login/oauth/authorize",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIBaseURL:   srv.URL,
		Timeout:      2 * time.Second,
	})
}

func TestClient_Exchange(t *testing.T) {
	t.Parallel()

	client := newProviderStub(t,
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("token endpoint called with method %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"gho_testtoken","token_type":"bearer"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer gho_testtoken" {
				t.Errorf("user endpoint authorization = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"login":"octocat","name":"The Octocat","avatar_url":"https://example.com/octocat.png"}`))
		},
	)

	profile, err := client.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if profile.Token != "gho_testtoken" {
		t.Errorf("Token = %q, want %q", profile.Token, "gho_testtoken")
	}
	if profile.Login != "octocat" {
		t.Errorf("Login = %q, want %q", profile.Login, "octocat")
	}
	if profile.Name != "The Octocat" {
		t.Errorf("Name = %q, want %q", profile.Name, "The Octocat")
	}
	if profile.AvatarURL != "https://example.com/octocat.png" {
		t.Errorf("AvatarURL = %q", profile.AvatarURL)
	}
}

func TestClient_ExchangeProviderError(t *testing.T) {
	t.Parallel()

	client := newProviderStub(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("user endpoint should not be called after a failed exchange")
		},
	)

	_, err := client.Exchange(context.Background(), "bad-code")

	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("Exchange() error = %v, want *ExchangeError", err)
	}
	if exchangeErr.Message != "The code passed is incorrect or expired." {
		t.Errorf("Message = %q, want provider description verbatim", exchangeErr.Message)
	}
}

func TestClient_ExchangeUserEndpointError(t *testing.T) {
	t.Parallel()

	client := newProviderStub(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"gho_testtoken","token_type":"bearer"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	)

	_, err := client.Exchange(context.Background(), "good-code")

	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("Exchange() error = %v, want *ExchangeError", err)
	}
}

func TestClient_AuthURL(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{ClientID: "test-client", ClientSecret: "test-secret"})

	url := client.AuthURL("state-123")
	if url == "" {
		t.Fatal("AuthURL() returned empty string")
	}
	for _, want := range []string{"client_id=test-client", "state=state-123"} {
		if !strings.Contains(url, want) {
			t.Errorf("AuthURL() = %q, missing %q", url, want)
		}
	}
}
