package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/storyreel/storyreel/internal/models"
)

func (db *DB) CreateRenderJob(ctx context.Context, job *models.RenderJob) error {
	query := `
		INSERT INTO render_jobs (id, story_id, status)
		VALUES (?, ?, ?)
		RETURNING created_at
	`

	return db.QueryRowContext(ctx, query, job.ID, job.StoryID, job.Status).
		Scan(&job.CreatedAt)
}

func (db *DB) UpdateRenderJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	var query string
	switch status {
	case models.JobStatusRunning:
		query = `UPDATE render_jobs SET status = ?, attempts = attempts + 1, started_at = CURRENT_TIMESTAMP WHERE id = ?`
	case models.JobStatusSucceeded, models.JobStatusFailed:
		query = `UPDATE render_jobs SET status = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`
	default:
		query = `UPDATE render_jobs SET status = ? WHERE id = ?`
	}

	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

func (db *DB) UpdateRenderJobError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE render_jobs
		SET status = ?, error_message = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := db.ExecContext(ctx, query, models.JobStatusFailed, errorMessage, id)
	return err
}
