package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postflowhq/publisher/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListDue(ctx context.Context, from, to time.Time) ([]*models.Post, error)
	ClaimForPublishing(ctx context.Context, postID int64) (bool, error)
	MarkPublished(ctx context.Context, postID int64, publishedAt time.Time, platformPosts models.PlatformPosts) error
	MarkFailed(ctx context.Context, postID int64, platformPosts models.PlatformPosts) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT id, user_id, caption, hashtags, scheduled_for, status, published_at, platform_posts, created_at, updated_at FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Caption, pq.Array(&post.Hashtags),
		&post.ScheduledFor, &post.Status, &post.PublishedAt, &post.PlatformPosts,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) ListDue(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	query := `
		SELECT id, user_id, caption, hashtags, scheduled_for, status, published_at, platform_posts, created_at, updated_at
		FROM posts
		WHERE status = $1 AND scheduled_for BETWEEN $2 AND $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(&post.ID, &post.UserID, &post.Caption, pq.Array(&post.Hashtags),
			&post.ScheduledFor, &post.Status, &post.PublishedAt, &post.PlatformPosts,
			&post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

// ClaimForPublishing flips a post from scheduled to publishing. The WHERE
// clause on status makes the claim a compare-and-set: a post already claimed
// by another run reports zero affected rows and the caller skips it.
func (r *postRepository) ClaimForPublishing(ctx context.Context, postID int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), postID, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time, platformPosts models.PlatformPosts) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = $2,
			platform_posts = $3,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, platformPosts, time.Now(), postID, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, postID int64, platformPosts models.PlatformPosts) error {
	query := `
		UPDATE posts
		SET status = $1,
			platform_posts = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, platformPosts, time.Now(), postID, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
