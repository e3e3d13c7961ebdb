package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postflowhq/publisher/internal/models"
)

type PublishRunRepository interface {
	Create(ctx context.Context, run *models.PublishRun) error
	GetByID(ctx context.Context, id string) (*models.PublishRun, error)
	ListRecent(ctx context.Context, limit int) ([]*models.PublishRun, error)
}

type publishRunRepository struct {
	db *sql.DB
}

func NewPublishRunRepository(db *sql.DB) PublishRunRepository {
	return &publishRunRepository{db: db}
}

func (r *publishRunRepository) Create(ctx context.Context, run *models.PublishRun) error {
	query := `
		INSERT INTO publish_runs (id, started_at, finished_at, total_due, published, failed, skipped, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query, run.ID, run.StartedAt, run.FinishedAt,
		run.TotalDue, run.Published, run.Failed, run.Skipped, run.Detail)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishRunRepository) GetByID(ctx context.Context, id string) (*models.PublishRun, error) {
	query := `SELECT id, started_at, finished_at, total_due, published, failed, skipped, detail FROM publish_runs WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var run models.PublishRun
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.TotalDue,
		&run.Published, &run.Failed, &run.Skipped, &run.Detail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &run, nil
}

func (r *publishRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.PublishRun, error) {
	query := `
		SELECT id, started_at, finished_at, total_due, published, failed, skipped, detail
		FROM publish_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var runs []*models.PublishRun
	for rows.Next() {
		var run models.PublishRun
		err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.TotalDue,
			&run.Published, &run.Failed, &run.Skipped, &run.Detail)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return runs, nil
}
