// Package client maintains a local cache of the server's read surface: a
// single snapshot that merges mutation results, subscription events, and
// periodic poll refreshes.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNoFetcher is returned by operations that need the network when the
// cache was built without a fetcher.
var ErrNoFetcher = errors.New("client: no fetcher configured")

// User is the public projection of an account.
type User struct {
	GithubLogin string `json:"githubLogin"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
}

// Photo is the public projection of a photo.
type Photo struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PostedBy    string `json:"postedBy"`
}

// Snapshot is the cached view of the read surface. After every merge the
// totals equal the list lengths.
type Snapshot struct {
	TotalUsers  int     `json:"totalUsers"`
	TotalPhotos int     `json:"totalPhotos"`
	AllUsers    []User  `json:"allUsers"`
	AllPhotos   []Photo `json:"allPhotos"`
	Me          *User   `json:"me"`
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		TotalUsers:  s.TotalUsers,
		TotalPhotos: s.TotalPhotos,
		AllUsers:    append([]User(nil), s.AllUsers...),
		AllPhotos:   append([]Photo(nil), s.AllPhotos...),
	}
	if s.Me != nil {
		me := *s.Me
		out.Me = &me
	}
	return out
}

// Fetcher loads a full snapshot from the server.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// Cache is the client-side snapshot cache. All merges are serialized by a
// single mutex; readers receive copies.
type Cache struct {
	fetcher      Fetcher
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	snap    *Snapshot
	applied map[string]struct{}
	// seq increments on every snapshot replacement and on logout. A
	// refresh that finishes against an older seq was superseded and is
	// discarded.
	seq uint64

	stopOnce sync.Once
	stop     chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithPollInterval sets the background poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Cache) { c.pollInterval = d }
}

// New creates a Cache. fetcher may be nil for a purely event-driven cache.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:      fetcher,
		logger:       slog.Default(),
		pollInterval: 30 * time.Second,
		applied:      make(map[string]struct{}),
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current snapshot, nil before the first
// merge or refresh.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Me returns the signed-in user from the cache. It never touches the
// network: before any snapshot exists it simply reports no user.
func (c *Cache) Me(_ context.Context) (*User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.snap.Me == nil {
		return nil, false
	}
	me := *c.snap.Me
	return &me, true
}

// Feed returns the cached photo feed. With a populated cache it answers
// immediately and refreshes in the background; on first use it blocks on a
// full refresh.
func (c *Cache) Feed(ctx context.Context) ([]Photo, error) {
	c.mu.Lock()
	cached := c.snap.clone()
	c.mu.Unlock()

	if cached != nil {
		go func() {
			if err := c.Refresh(context.Background()); err != nil {
				c.logger.Warn("background refresh failed", "error", err)
			}
		}()
		return cached.AllPhotos, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Photo(nil), c.snap.AllPhotos...), nil
}

// ApplyUsersAdded merges the result of an add-users mutation. mutationID
// identifies the mutation call; reapplying an already-merged id is a no-op,
// so retried mutations never double-append.
func (c *Cache) ApplyUsersAdded(mutationID string, users []User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, done := c.applied[mutationID]; done {
		return
	}
	c.applied[mutationID] = struct{}{}

	if c.snap == nil {
		c.snap = &Snapshot{}
	}
	c.snap.AllUsers = append(c.snap.AllUsers, users...)
	c.snap.TotalUsers += len(users)
}

// ApplyUserAdded merges a user-added event. Events are deduplicated by
// login.
func (c *Cache) ApplyUserAdded(user User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil {
		c.snap = &Snapshot{}
	}
	for _, existing := range c.snap.AllUsers {
		if existing.GithubLogin == user.GithubLogin {
			return
		}
	}
	c.snap.AllUsers = append(c.snap.AllUsers, user)
	c.snap.TotalUsers++
}

// ApplyPhotoAdded merges a photo-added event. Events are deduplicated by
// photo id, so a photo observed both via subscription and refresh appears
// once.
func (c *Cache) ApplyPhotoAdded(photo Photo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap == nil {
		c.snap = &Snapshot{}
	}
	for _, existing := range c.snap.AllPhotos {
		if existing.ID == photo.ID {
			return
		}
	}
	c.snap.AllPhotos = append(c.snap.AllPhotos, photo)
	c.snap.TotalPhotos++
}

// SetMe records the signed-in user after authentication.
func (c *Cache) SetMe(user User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		c.snap = &Snapshot{}
	}
	me := user
	c.snap.Me = &me
	c.seq++
}

// Logout clears the signed-in user in place. Lists and totals are left
// untouched; the sequence bump discards any refresh still in flight so a
// stale snapshot cannot resurrect the session.
func (c *Cache) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		c.snap.Me = nil
	}
	c.seq++
}

// Refresh fetches a full snapshot and replaces the cache wholesale, unless
// the cache moved on while the fetch was in flight.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.fetcher == nil {
		return ErrNoFetcher
	}

	c.mu.Lock()
	started := c.seq
	c.mu.Unlock()

	snap, err := c.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != started {
		// Superseded by a newer refresh or a logout.
		return nil
	}
	c.snap = snap
	c.seq++
	return nil
}

// StartPolling refreshes the snapshot every poll interval until Close.
func (c *Cache) StartPolling() {
	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Refresh(context.Background()); err != nil {
					c.logger.Warn("poll refresh failed", "error", err)
				}
			case <-c.stop:
				return
			}
		}
	}()
}

// Close stops background polling. It does not discard the cache.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
