package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/photoshare/photoshare/internal/github"
	"github.com/photoshare/photoshare/internal/metrics"
	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/pubsub"
	"github.com/photoshare/photoshare/internal/repository"
)

// UserStore is the persistence surface AuthService depends on.
type UserStore interface {
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	ReplaceUser(ctx context.Context, user *model.User) error
	InsertUsers(ctx context.Context, users []*model.User) error
}

// CodeExchanger trades an OAuth authorization code for a provider profile.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*github.Profile, error)
}

// ProfileSource supplies generated profiles for synthetic users.
type ProfileSource interface {
	Fetch(ctx context.Context, count int) ([]model.User, error)
}

// AuthService handles sign-in and account provisioning.
type AuthService struct {
	store     UserStore
	exchanger CodeExchanger
	profiles  ProfileSource
	publisher Publisher
	metrics   metrics.Recorder
	timeout   time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, exchanger CodeExchanger, profiles ProfileSource, publisher Publisher, recorder metrics.Recorder, timeout time.Duration) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		store:     store,
		exchanger: exchanger,
		profiles:  profiles,
		publisher: publisher,
		metrics:   recorder,
		timeout:   timeout,
	}
}

// GithubAuth completes a GitHub sign-in: the code is exchanged for a token
// and profile, and the account record is replaced wholesale so the store
// always carries the provider's current view of the profile.
func (s *AuthService) GithubAuth(ctx context.Context, code string) (*model.AuthPayload, error) {
	profile, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		GithubLogin: profile.Login,
		Name:        profile.Name,
		Avatar:      profile.AvatarURL,
		GithubToken: profile.Token,
	}

	replaceCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.ReplaceUser(replaceCtx, user); err != nil {
		if isTimeout(replaceCtx, err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("replacing user record: %w", err)
	}

	s.metrics.IncUserReplaced()

	return &model.AuthPayload{User: user, Token: user.GithubToken}, nil
}

// AddSyntheticUsers provisions count generated accounts and announces each
// one on the user-added channel.
func (s *AuthService) AddSyntheticUsers(ctx context.Context, count int) ([]*model.User, error) {
	fetched, err := s.profiles.Fetch(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("fetching generated profiles: %w", err)
	}

	users := make([]*model.User, len(fetched))
	for i := range fetched {
		users[i] = &fetched[i]
	}

	insertCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.InsertUsers(insertCtx, users); err != nil {
		if isTimeout(insertCtx, err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("inserting synthetic users: %w", err)
	}

	s.metrics.IncSyntheticUsersAdded(len(users))
	for _, user := range users {
		s.publisher.Publish(pubsub.ChannelUserAdded, user)
	}

	return users, nil
}

// AuthenticateAsExistingUser signs in as an already-stored account by login,
// returning the token that account carries. Intended for development and
// demos alongside synthetic users.
func (s *AuthService) AuthenticateAsExistingUser(ctx context.Context, login string) (*model.AuthPayload, error) {
	lookupCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.store.GetUserByLogin(lookupCtx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		if isTimeout(lookupCtx, err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("looking up user %q: %w", login, err)
	}

	return &model.AuthPayload{User: user, Token: user.GithubToken}, nil
}
