// Package github exchanges OAuth authorization codes for GitHub profiles.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// ExchangeError is returned when the provider answers with an error message
// instead of a token. The message is surfaced to the caller verbatim.
type ExchangeError struct {
	Message string
}

func (e *ExchangeError) Error() string {
	return e.Message
}

// Profile is the provider-side result of a successful code exchange: the
// access token plus the profile fields this application stores.
type Profile struct {
	Token     string
	Login     string
	Name      string
	AvatarURL string
}

// Config holds provider credentials and optional endpoint overrides.
// Empty endpoint fields select the public github.com endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
	Timeout      time.Duration
}

// Client performs the server-to-server half of the authorization code flow:
// trade the one-time code for an access token, then fetch the profile the
// token belongs to.
type Client struct {
	conf       *oauth2.Config
	apiBaseURL string
	timeout    time.Duration
}

// NewClient creates a provider client.
func NewClient(cfg Config) *Client {
	endpoint := githuboauth.Endpoint
	if cfg.AuthURL != "" || cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}

	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = "https://api.github.com"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"user"},
			Endpoint:     endpoint,
		},
		apiBaseURL: strings.TrimSuffix(apiBaseURL, "/"),
		timeout:    timeout,
	}
}

// AuthURL returns the URL to send a user to for authorization.
func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// githubUser is the part of the GitHub /user response this application reads.
type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Exchange trades an authorization code for an access token and the profile
// it belongs to. A provider-reported failure (bad code, revoked client,
// expired grant) is returned as *ExchangeError with the provider's message.
func (c *Client) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &ExchangeError{Message: providerMessage(retrieveErr)}
		}
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	user, err := c.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Token:     token.AccessToken,
		Login:     user.Login,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}, nil
}

// fetchUser calls the provider's /user endpoint with the exchanged token.
func (c *Client) fetchUser(ctx context.Context, token *oauth2.Token) (*githubUser, error) {
	client := c.conf.Client(ctx, token)

	resp, err := client.Get(c.apiBaseURL + "/user")
	if err != nil {
		return nil, fmt.Errorf("calling provider /user endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{Message: fmt.Sprintf("provider /user endpoint returned status %d", resp.StatusCode)}
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding provider /user response: %w", err)
	}

	if user.Login == "" {
		return nil, &ExchangeError{Message: "provider returned a profile without a login"}
	}

	return &user, nil
}

// providerMessage extracts the human-readable message from a token endpoint
// error response, preferring the OAuth error_description field.
func providerMessage(err *oauth2.RetrieveError) string {
	if err.ErrorDescription != "" {
		return err.ErrorDescription
	}
	if err.ErrorCode != "" {
		return err.ErrorCode
	}
	body := strings.TrimSpace(string(err.Body))
	if body != "" {
		return body
	}
	return "authorization code exchange failed"
}
