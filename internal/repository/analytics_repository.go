package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postflowhq/publisher/internal/models"
)

type AnalyticsRepository interface {
	CreatePlaceholder(ctx context.Context, pa *models.PostAnalytics) (int64, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CreatePlaceholder(ctx context.Context, pa *models.PostAnalytics) (int64, error) {
	query := `
		INSERT INTO post_analytics (post_id, account_id, platform, platform_post_id, impressions, likes, comments, shares)
		VALUES ($1, $2, $3, $4, 0, 0, 0, 0)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, pa.PostID, pa.AccountID, pa.Platform, pa.PlatformPostID).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}
