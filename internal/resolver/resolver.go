package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/photoshare/photoshare/internal/metrics"
	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/repository"
)

// Store is the read surface the resolver executes selections against.
type Store interface {
	CountUsers(ctx context.Context) (int, error)
	CountPhotos(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	ListUsersByLogins(ctx context.Context, logins []string) ([]*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	ListPhotos(ctx context.Context) ([]*model.Photo, error)
	ListPhotosByUser(ctx context.Context, login string) ([]*model.Photo, error)
	ListPhotosByIDs(ctx context.Context, ids []int64) ([]*model.Photo, error)
	ListTagsByUser(ctx context.Context, login string) ([]*model.Tag, error)
	ListTaggedLogins(ctx context.Context, photoID int64) ([]string, error)
}

// FieldError reports a failure scoped to one field of the response. The path
// is dotted, with list indices, e.g. "allPhotos.2.postedBy".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the response to a selection document. Data mirrors the selection;
// a field whose resolution failed is null, with the failure in Errors.
type Result struct {
	Data   map[string]any `json:"data"`
	Errors []FieldError   `json:"errors,omitempty"`
}

// Resolver executes validated selection documents.
type Resolver struct {
	store    Store
	logger   *slog.Logger
	metrics  metrics.Recorder
	maxDepth int
	maxCost  int
}

// New creates a Resolver with the given depth and cost ceilings.
func New(store Store, logger *slog.Logger, recorder metrics.Recorder, maxDepth, maxCost int) *Resolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Resolver{
		store:    store,
		logger:   logger,
		metrics:  recorder,
		maxDepth: maxDepth,
		maxCost:  maxCost,
	}
}

// Execute validates and resolves a selection document. identity is the
// caller's resolved user, nil when anonymous; it is only read by the me
// field. A *ValidationError means the document was rejected before any store
// access; field-level failures during resolution land in Result.Errors
// while sibling fields complete.
func (r *Resolver) Execute(ctx context.Context, doc *Document, identity *model.User) (*Result, error) {
	cost, err := validate(doc, r.maxDepth, r.maxCost)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			r.metrics.IncQueryRejected(verr.Reason)
		}
		return nil, err
	}

	r.metrics.ObserveQueryCost(cost)
	r.logger.Debug("query cost", slog.Int("cost", cost))

	exec := &execution{resolver: r, identity: identity}

	data := make(map[string]any, len(doc.Select))
	for _, name := range sortedFields(doc.Select) {
		data[name] = exec.resolveRoot(ctx, name, doc.Select[name])
	}

	return &Result{Data: data, Errors: exec.errors}, nil
}

// execution carries per-request state: the caller's identity and the field
// errors accumulated so far.
type execution struct {
	resolver *Resolver
	identity *model.User
	errors   []FieldError
}

func (e *execution) fail(path string, err error) any {
	e.errors = append(e.errors, FieldError{Path: path, Message: err.Error()})
	return nil
}

func (e *execution) resolveRoot(ctx context.Context, name string, sel Selection) any {
	store := e.resolver.store
	switch name {
	case "totalUsers":
		count, err := store.CountUsers(ctx)
		if err != nil {
			return e.fail(name, err)
		}
		return count
	case "totalPhotos":
		count, err := store.CountPhotos(ctx)
		if err != nil {
			return e.fail(name, err)
		}
		return count
	case "allUsers":
		users, err := store.ListUsers(ctx)
		if err != nil {
			return e.fail(name, err)
		}
		return e.projectUsers(ctx, users, sel, name)
	case "allPhotos":
		photos, err := store.ListPhotos(ctx)
		if err != nil {
			return e.fail(name, err)
		}
		return e.projectPhotos(ctx, photos, sel, name)
	case "me":
		if e.identity == nil {
			return nil
		}
		return e.projectUser(ctx, e.identity, sel, name)
	default:
		// Unreachable: validate rejects unknown root fields.
		return e.fail(name, fmt.Errorf("unknown field %q", name))
	}
}

func (e *execution) projectUsers(ctx context.Context, users []*model.User, sel Selection, path string) []any {
	out := make([]any, len(users))
	for i, user := range users {
		out[i] = e.projectUser(ctx, user, sel, fmt.Sprintf("%s.%d", path, i))
	}
	return out
}

// projectUser resolves the selected fields of a user. An empty selection
// yields the default scalar projection. The access token is never projected.
func (e *execution) projectUser(ctx context.Context, user *model.User, sel Selection, path string) map[string]any {
	if len(sel.Select) == 0 {
		return map[string]any{
			"githubLogin": user.GithubLogin,
			"name":        user.Name,
			"avatar":      user.Avatar,
		}
	}

	store := e.resolver.store
	out := make(map[string]any, len(sel.Select))
	for _, name := range sortedFields(sel.Select) {
		child := sel.Select[name]
		fieldPath := path + "." + name
		switch name {
		case "githubLogin":
			out[name] = user.GithubLogin
		case "name":
			out[name] = user.Name
		case "avatar":
			out[name] = user.Avatar
		case "postedPhotos":
			photos, err := store.ListPhotosByUser(ctx, user.GithubLogin)
			if err != nil {
				out[name] = e.fail(fieldPath, err)
				continue
			}
			out[name] = e.projectPhotos(ctx, photos, child, fieldPath)
		case "inPhotos":
			photos, err := e.photosTaggingUser(ctx, user.GithubLogin)
			if err != nil {
				out[name] = e.fail(fieldPath, err)
				continue
			}
			out[name] = e.projectPhotos(ctx, photos, child, fieldPath)
		}
	}
	return out
}

func (e *execution) projectPhotos(ctx context.Context, photos []*model.Photo, sel Selection, path string) []any {
	out := make([]any, len(photos))
	for i, photo := range photos {
		out[i] = e.projectPhoto(ctx, photo, sel, fmt.Sprintf("%s.%d", path, i))
	}
	return out
}

// projectPhoto resolves the selected fields of a photo. The id field is the
// canonical id; url is derived from storage identity, never stored.
func (e *execution) projectPhoto(ctx context.Context, photo *model.Photo, sel Selection, path string) map[string]any {
	if len(sel.Select) == 0 {
		return map[string]any{
			"id":          photo.CanonicalID(),
			"url":         photo.URL(),
			"name":        photo.Name,
			"description": photo.Description,
			"category":    photo.Category,
		}
	}

	store := e.resolver.store
	out := make(map[string]any, len(sel.Select))
	for _, name := range sortedFields(sel.Select) {
		child := sel.Select[name]
		fieldPath := path + "." + name
		switch name {
		case "id":
			out[name] = photo.CanonicalID()
		case "url":
			out[name] = photo.URL()
		case "name":
			out[name] = photo.Name
		case "description":
			out[name] = photo.Description
		case "category":
			out[name] = photo.Category
		case "postedBy":
			owner, err := store.GetUserByLogin(ctx, photo.UserID)
			if errors.Is(err, repository.ErrUserNotFound) {
				// A dangling owner resolves to absent, not an error.
				out[name] = nil
				continue
			}
			if err != nil {
				out[name] = e.fail(fieldPath, err)
				continue
			}
			out[name] = e.projectUser(ctx, owner, child, fieldPath)
		case "taggedUsers":
			logins, err := store.ListTaggedLogins(ctx, photo.ID)
			if err != nil {
				out[name] = e.fail(fieldPath, err)
				continue
			}
			users, err := store.ListUsersByLogins(ctx, logins)
			if err != nil {
				out[name] = e.fail(fieldPath, err)
				continue
			}
			out[name] = e.projectUsers(ctx, users, child, fieldPath)
		}
	}
	return out
}

// photosTaggingUser loads the photos a user is tagged in.
func (e *execution) photosTaggingUser(ctx context.Context, login string) ([]*model.Photo, error) {
	tags, err := e.resolver.store.ListTagsByUser(ctx, login)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(tags))
	for i, tag := range tags {
		ids[i] = tag.PhotoID
	}
	return e.resolver.store.ListPhotosByIDs(ctx, ids)
}

// sortedFields returns a selection's field names in a stable order so
// resolution order, and therefore error order, is deterministic.
func sortedFields(sel map[string]Selection) []string {
	names := make([]string, 0, len(sel))
	for name := range sel {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
