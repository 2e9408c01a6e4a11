package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/photoshare/photoshare/internal/model"
)

// ListTagsByPhoto returns the tag rows for a photo.
func (r *Repository) ListTagsByPhoto(ctx context.Context, photoID int64) ([]*model.Tag, error) {
	query := `
		SELECT photo_id, user_id
		FROM tags
		WHERE photo_id = $1
		ORDER BY user_id
	`

	return r.queryTags(ctx, query, photoID)
}

// ListTagsByUser returns the tag rows referencing a user.
func (r *Repository) ListTagsByUser(ctx context.Context, login string) ([]*model.Tag, error) {
	query := `
		SELECT photo_id, user_id
		FROM tags
		WHERE user_id = $1
		ORDER BY photo_id
	`

	return r.queryTags(ctx, query, login)
}

// ListTaggedLogins returns the logins tagged in a photo as a single array,
// saving a row scan per tag on the hot read path.
func (r *Repository) ListTaggedLogins(ctx context.Context, photoID int64) ([]string, error) {
	query := `
		SELECT COALESCE(array_agg(user_id ORDER BY user_id), '{}')
		FROM tags
		WHERE photo_id = $1
	`

	var logins []string
	if err := r.pool.QueryRow(ctx, query, photoID).Scan(pq.Array(&logins)); err != nil {
		return nil, fmt.Errorf("failed to list tagged logins: %w", err)
	}

	return logins, nil
}

// InsertTag records that a user appears in a photo. Duplicate rows are
// ignored. Exists for seeding and tests; the sync core itself never writes
// tags.
func (r *Repository) InsertTag(ctx context.Context, tag *model.Tag) error {
	query := `
		INSERT INTO tags (photo_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, tag.PhotoID, tag.UserID); err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}

	return nil
}

func (r *Repository) queryTags(ctx context.Context, query string, args ...any) ([]*model.Tag, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.PhotoID, &tag.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}
