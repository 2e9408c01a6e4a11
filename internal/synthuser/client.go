// Package synthuser fetches generated profiles from a randomuser.me
// compatible source for seeding and testing without real GitHub accounts.
package synthuser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/photoshare/photoshare/internal/model"
)

// Client talks to a profile source that answers in the randomuser.me shape.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a profile source client. baseURL points at the source's
// API endpoint, e.g. https://randomuser.me/api/.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// profileResponse mirrors the randomuser.me response envelope, reduced to
// the fields mapped onto stored users.
type profileResponse struct {
	Results []struct {
		Login struct {
			Username string `json:"username"`
			SHA1     string `json:"sha1"`
		} `json:"login"`
		Name struct {
			First string `json:"first"`
			Last  string `json:"last"`
		} `json:"name"`
		Picture struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"picture"`
	} `json:"results"`
}

// Fetch retrieves count generated profiles and maps them onto user records:
// the username becomes the login, first and last name join into the display
// name, the thumbnail becomes the avatar, and the sha1 stands in for a token.
func (c *Client) Fetch(ctx context.Context, count int) ([]model.User, error) {
	if count <= 0 {
		return nil, nil
	}

	reqURL, err := c.requestURL(count)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating profile source request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling profile source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile source returned status %d", resp.StatusCode)
	}

	var payload profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding profile source response: %w", err)
	}

	users := make([]model.User, 0, len(payload.Results))
	for _, r := range payload.Results {
		users = append(users, model.User{
			GithubLogin: r.Login.Username,
			Name:        strings.TrimSpace(r.Name.First + " " + r.Name.Last),
			Avatar:      r.Picture.Thumbnail,
			GithubToken: r.Login.SHA1,
		})
	}
	return users, nil
}

func (c *Client) requestURL(count int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing profile source URL: %w", err)
	}
	q := u.Query()
	q.Set("results", fmt.Sprintf("%d", count))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
