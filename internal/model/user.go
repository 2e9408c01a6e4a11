// Package model defines domain entities for the application.
package model

// User represents a GitHub-backed account.
//
// GithubLogin is the only stable key; every other profile field is replaced
// wholesale when the user re-authenticates. GithubToken is the bearer
// credential the identity middleware matches against. It is held server-side
// and must never appear in a read-facing projection, hence `json:"-"`.
type User struct {
	GithubLogin string `json:"github_login"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	GithubToken string `json:"-"`
}

// AuthPayload is the result of an authentication exchange: the public user
// projection plus the token the client presents on subsequent requests.
type AuthPayload struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
