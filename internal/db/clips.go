package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/storyreel/storyreel/internal/models"
)

func (db *DB) CreateClip(ctx context.Context, clip *models.Clip) error {
	query := `
		INSERT INTO clips (
			id, scene_id, order_index, narration, narration_audio_url,
			image_url, background_image_url, duration_sec,
			transition_type, transition_duration_sec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		clip.ID, clip.SceneID, clip.OrderIndex, clip.Narration, clip.NarrationAudioURL,
		clip.ImageURL, clip.BackgroundImageURL, clip.DurationSec,
		clip.TransitionType, clip.TransitionDurationSec,
	).Scan(&clip.CreatedAt, &clip.UpdatedAt)
}

func (db *DB) GetClip(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	query := `
		SELECT
			id, scene_id, order_index, narration, narration_audio_url,
			image_url, background_image_url, duration_sec,
			transition_type, transition_duration_sec, created_at, updated_at
		FROM clips
		WHERE id = ?
	`

	clip := &models.Clip{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&clip.ID, &clip.SceneID, &clip.OrderIndex, &clip.Narration, &clip.NarrationAudioURL,
		&clip.ImageURL, &clip.BackgroundImageURL, &clip.DurationSec,
		&clip.TransitionType, &clip.TransitionDurationSec, &clip.CreatedAt, &clip.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "clip", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clip: %w", err)
	}

	return clip, nil
}

func (db *DB) GetSceneClips(ctx context.Context, sceneID uuid.UUID) ([]models.Clip, error) {
	query := `
		SELECT
			id, scene_id, order_index, narration, narration_audio_url,
			image_url, background_image_url, duration_sec,
			transition_type, transition_duration_sec, created_at, updated_at
		FROM clips
		WHERE scene_id = ?
		ORDER BY order_index, id
	`

	rows, err := db.QueryContext(ctx, query, sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	var clips []models.Clip
	for rows.Next() {
		var clip models.Clip
		err := rows.Scan(
			&clip.ID, &clip.SceneID, &clip.OrderIndex, &clip.Narration, &clip.NarrationAudioURL,
			&clip.ImageURL, &clip.BackgroundImageURL, &clip.DurationSec,
			&clip.TransitionType, &clip.TransitionDurationSec, &clip.CreatedAt, &clip.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}

	return clips, rows.Err()
}

// Asset-URL writes are the only clip mutations the service performs; render
// jobs themselves never call these.

func (db *DB) UpdateClipNarrationAudio(ctx context.Context, id uuid.UUID, audioURL string) error {
	query := `UPDATE clips SET narration_audio_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := db.ExecContext(ctx, query, audioURL, id)
	return err
}

func (db *DB) UpdateClipImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `UPDATE clips SET image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := db.ExecContext(ctx, query, imageURL, id)
	return err
}

func (db *DB) UpdateClipBackgroundImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `UPDATE clips SET background_image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := db.ExecContext(ctx, query, imageURL, id)
	return err
}

func (db *DB) UpdateSceneMusic(ctx context.Context, sceneID uuid.UUID, musicURL string) error {
	query := `UPDATE scenes SET background_music_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := db.ExecContext(ctx, query, musicURL, sceneID)
	return err
}

func (db *DB) GetScene(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	query := `
		SELECT id, story_id, order_index, title, background_music_url, created_at, updated_at
		FROM scenes
		WHERE id = ?
	`

	scene := &models.Scene{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&scene.ID, &scene.StoryID, &scene.OrderIndex, &scene.Title,
		&scene.BackgroundMusicURL, &scene.CreatedAt, &scene.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "scene", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}

	return scene, nil
}
