package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// snapshotSelection is the selection document a full refresh posts to the
// query endpoint.
const snapshotSelection = `{
	"select": {
		"totalUsers": {},
		"totalPhotos": {},
		"allUsers": {},
		"allPhotos": {
			"select": {
				"id": {},
				"url": {},
				"name": {},
				"description": {},
				"category": {},
				"postedBy": {"select": {"githubLogin": {}}}
			}
		},
		"me": {}
	}
}`

// HTTPFetcher loads snapshots over the server's query endpoint.
type HTTPFetcher struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for the given server base URL. token is
// the bearer credential, empty for anonymous use.
func NewHTTPFetcher(baseURL, token string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wirePhoto is a photo as the query endpoint projects it: the owner arrives
// as a relation object and is flattened to a login.
type wirePhoto struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PostedBy    struct {
		GithubLogin string `json:"githubLogin"`
	} `json:"postedBy"`
}

// FetchSnapshot posts the snapshot selection and decodes the response.
func (f *HTTPFetcher) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/query", bytes.NewReader([]byte(snapshotSelection)))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			TotalUsers  int         `json:"totalUsers"`
			TotalPhotos int         `json:"totalPhotos"`
			AllUsers    []User      `json:"allUsers"`
			AllPhotos   []wirePhoto `json:"allPhotos"`
			Me          *User       `json:"me"`
		} `json:"data"`
		Errors []struct {
			Path    string `json:"path"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("query field %q failed: %s", payload.Errors[0].Path, payload.Errors[0].Message)
	}

	snap := &Snapshot{
		TotalUsers:  payload.Data.TotalUsers,
		TotalPhotos: payload.Data.TotalPhotos,
		AllUsers:    payload.Data.AllUsers,
		Me:          payload.Data.Me,
		AllPhotos:   make([]Photo, len(payload.Data.AllPhotos)),
	}
	for i, p := range payload.Data.AllPhotos {
		snap.AllPhotos[i] = Photo{
			ID:          p.ID,
			URL:         p.URL,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			PostedBy:    p.PostedBy.GithubLogin,
		}
	}
	return snap, nil
}
