package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/storyreel/storyreel/internal/models"
)

func (db *DB) CreateStory(ctx context.Context, story *models.Story) error {
	query := `
		INSERT INTO stories (id, title, status)
		VALUES (?, ?, ?)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(ctx, query, story.ID, story.Title, story.Status).
		Scan(&story.CreatedAt, &story.UpdatedAt)
}

func (db *DB) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `
		SELECT id, title, status, video_url, error_message, created_at, updated_at
		FROM stories
		WHERE id = ?
	`

	story := &models.Story{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&story.ID, &story.Title, &story.Status, &story.VideoURL,
		&story.ErrorMessage, &story.CreatedAt, &story.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "story", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	return story, nil
}

func (db *DB) GetStoryScenes(ctx context.Context, storyID uuid.UUID) ([]models.Scene, error) {
	query := `
		SELECT id, story_id, order_index, title, background_music_url, created_at, updated_at
		FROM scenes
		WHERE story_id = ?
		ORDER BY order_index, id
	`

	rows, err := db.QueryContext(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	var scenes []models.Scene
	for rows.Next() {
		var scene models.Scene
		err := rows.Scan(
			&scene.ID, &scene.StoryID, &scene.OrderIndex, &scene.Title,
			&scene.BackgroundMusicURL, &scene.CreatedAt, &scene.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}

	return scenes, rows.Err()
}

func (db *DB) UpdateStoryStatus(ctx context.Context, id uuid.UUID, status models.StoryStatus) error {
	query := `UPDATE stories SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, id)
	return err
}

func (db *DB) SetStoryVideo(ctx context.Context, id uuid.UUID, videoURL string) error {
	query := `
		UPDATE stories
		SET video_url = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := db.ExecContext(ctx, query, videoURL, models.StoryStatusCompleted, id)
	return err
}

func (db *DB) UpdateStoryError(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE stories
		SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := db.ExecContext(ctx, query, models.StoryStatusFailed, errorMessage, id)
	return err
}
