package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/photoshare/photoshare/internal/metrics"
	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/pubsub"
)

// PhotoStore is the persistence surface PhotoService depends on.
type PhotoStore interface {
	InsertPhoto(ctx context.Context, photo *model.Photo) error
}

// PhotoService handles photo posting.
type PhotoService struct {
	store     PhotoStore
	publisher Publisher
	metrics   metrics.Recorder
	timeout   time.Duration
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(store PhotoStore, publisher Publisher, recorder metrics.Recorder, timeout time.Duration) *PhotoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PhotoService{
		store:     store,
		publisher: publisher,
		metrics:   recorder,
		timeout:   timeout,
	}
}

// PostPhotoInput defines input for posting a photo.
type PostPhotoInput struct {
	Name        string
	Description string
	Category    string
}

// PostPhoto stores a new photo owned by the authenticated user and announces
// it on the photo-added channel. An empty category defaults to PORTRAIT.
func (s *PhotoService) PostPhoto(ctx context.Context, identity *model.User, input PostPhotoInput) (*model.Photo, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	if input.Name == "" {
		return nil, ErrNameRequired
	}

	category := model.CategoryPortrait
	if input.Category != "" {
		category = model.PhotoCategory(input.Category)
		if !category.IsValid() {
			return nil, ErrInvalidCategory
		}
	}

	photo := &model.Photo{
		ExternalID:  ulid.Make().String(),
		Name:        input.Name,
		Description: input.Description,
		Category:    category,
		UserID:      identity.GithubLogin,
		Created:     time.Now().UTC(),
	}

	insertCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.InsertPhoto(insertCtx, photo); err != nil {
		if isTimeout(insertCtx, err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("inserting photo: %w", err)
	}

	s.metrics.IncPhotoPosted()
	s.publisher.Publish(pubsub.ChannelPhotoAdded, photo)

	return photo, nil
}
