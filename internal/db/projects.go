package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/storyreel/storyreel/internal/models"
)

func (db *DB) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT id, name, created_at, updated_at FROM projects WHERE id = ?`

	project := &models.Project{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Name, &project.CreatedAt, &project.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "project", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (db *DB) GetProjectTracks(ctx context.Context, projectID uuid.UUID) ([]models.Track, error) {
	query := `
		SELECT id, project_id, order_index
		FROM tracks
		WHERE project_id = ?
		ORDER BY order_index, id
	`

	rows, err := db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		if err := rows.Scan(&track.ID, &track.ProjectID, &track.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}

	return tracks, rows.Err()
}

func (db *DB) GetTrackClips(ctx context.Context, trackID uuid.UUID) ([]models.TrackClip, error) {
	query := `
		SELECT id, track_id, media_id, start_time_sec
		FROM track_clips
		WHERE track_id = ?
		ORDER BY start_time_sec, id
	`

	rows, err := db.QueryContext(ctx, query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track clips: %w", err)
	}
	defer rows.Close()

	var refs []models.TrackClip
	for rows.Next() {
		var ref models.TrackClip
		if err := rows.Scan(&ref.ID, &ref.TrackID, &ref.MediaID, &ref.StartTimeSec); err != nil {
			return nil, fmt.Errorf("failed to scan track clip: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

func (db *DB) GetMediaAsset(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	query := `SELECT id, kind, url, duration_sec, description, created_at FROM media_assets WHERE id = ?`

	asset := &models.MediaAsset{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&asset.ID, &asset.Kind, &asset.URL, &asset.DurationSec,
		&asset.Description, &asset.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "media asset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media asset: %w", err)
	}

	return asset, nil
}

func (db *DB) ListMediaAssets(ctx context.Context, kind models.AssetKind) ([]models.MediaAsset, error) {
	query := `SELECT id, kind, url, duration_sec, description, created_at FROM media_assets WHERE kind = ? ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query media assets: %w", err)
	}
	defer rows.Close()

	var assets []models.MediaAsset
	for rows.Next() {
		var asset models.MediaAsset
		err := rows.Scan(
			&asset.ID, &asset.Kind, &asset.URL, &asset.DurationSec,
			&asset.Description, &asset.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media asset: %w", err)
		}
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}
