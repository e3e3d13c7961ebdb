package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postflowhq/publisher/internal/models"
)

type PostMediaRepository interface {
	ListByPostID(ctx context.Context, postID int64) ([]*models.MediaItem, error)
}

type postMediaRepository struct {
	db *sql.DB
}

func NewPostMediaRepository(db *sql.DB) PostMediaRepository {
	return &postMediaRepository{db: db}
}

// ListByPostID returns a post's media joined with its asset rows, in display
// order. The order is the order items appear in carousels and albums.
func (r *postMediaRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.MediaItem, error) {
	query := `
		SELECT ma.id, pm.post_id, pm.display_order, ma.media_type, ma.file_url, ma.thumbnail_url
		FROM post_media pm
		JOIN media_assets ma ON ma.id = pm.asset_id
		WHERE pm.post_id = $1
		ORDER BY pm.display_order
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		var mi models.MediaItem
		if err := rows.Scan(&mi.ID, &mi.PostID, &mi.DisplayOrder, &mi.MediaType, &mi.FileURL, &mi.ThumbnailURL); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, &mi)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return items, nil
}
