package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/photoshare/photoshare/internal/model"
)

// Common errors for photo repository operations.
var (
	ErrPhotoNotFound = errors.New("photo not found")
)

const photoColumns = "id, external_id, name, description, category, user_id, created"

// InsertPhoto persists a new photo and fills in the storage-assigned id.
func (r *Repository) InsertPhoto(ctx context.Context, photo *model.Photo) error {
	query := `
		INSERT INTO photos (external_id, name, description, category, user_id, created)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		photo.ExternalID,
		photo.Name,
		photo.Description,
		photo.Category,
		photo.UserID,
		photo.Created,
	).Scan(&photo.ID)

	if err != nil {
		return fmt.Errorf("failed to insert photo: %w", err)
	}

	return nil
}

// GetPhotoByID retrieves a photo by its internal id.
func (r *Repository) GetPhotoByID(ctx context.Context, id int64) (*model.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE id = $1
	`

	var photo model.Photo
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&photo.ID,
		&photo.ExternalID,
		&photo.Name,
		&photo.Description,
		&photo.Category,
		&photo.UserID,
		&photo.Created,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to get photo by id: %w", err)
	}

	return &photo, nil
}

// ListPhotos returns all photos in creation order.
func (r *Repository) ListPhotos(ctx context.Context) ([]*model.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		ORDER BY id
	`

	return r.queryPhotos(ctx, query)
}

// ListPhotosByUser returns the photos posted by a user, in creation order.
func (r *Repository) ListPhotosByUser(ctx context.Context, login string) ([]*model.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE user_id = $1
		ORDER BY id
	`

	return r.queryPhotos(ctx, query, login)
}

// ListPhotosByIDs returns the photos matching the given internal ids.
// Missing ids are silently skipped.
func (r *Repository) ListPhotosByIDs(ctx context.Context, ids []int64) ([]*model.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE id = ANY($1)
		ORDER BY id
	`

	return r.queryPhotos(ctx, query, ids)
}

// CountPhotos returns the total number of photos.
func (r *Repository) CountPhotos(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM photos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

func (r *Repository) queryPhotos(ctx context.Context, query string, args ...any) ([]*model.Photo, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []*model.Photo
	for rows.Next() {
		var photo model.Photo
		err := rows.Scan(
			&photo.ID,
			&photo.ExternalID,
			&photo.Name,
			&photo.Description,
			&photo.Category,
			&photo.UserID,
			&photo.Created,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}

	return photos, nil
}
