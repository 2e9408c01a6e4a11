package auth

import (
	"context"
	"testing"

	"github.com/photoshare/photoshare/internal/model"
)

func TestIdentityFromContext_Absent(t *testing.T) {
	t.Parallel()

	if got := IdentityFromContext(context.Background()); got != nil {
		t.Errorf("IdentityFromContext = %v, want nil", got)
	}
	if got := LoginFromContext(context.Background()); got != "" {
		t.Errorf("LoginFromContext = %q, want empty", got)
	}
}

func TestIdentityFromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	user := &model.User{GithubLogin: "alice", Name: "Alice"}
	ctx := ContextWithIdentity(context.Background(), user)

	got := IdentityFromContext(ctx)
	if got == nil || got.GithubLogin != "alice" {
		t.Errorf("IdentityFromContext = %v, want alice", got)
	}
	if login := LoginFromContext(ctx); login != "alice" {
		t.Errorf("LoginFromContext = %q, want %q", login, "alice")
	}
}
