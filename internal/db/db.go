package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NotFoundError marks a missing entity row. The render orchestrator and the
// HTTP layer match it structurally via the NotFound method.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) NotFound() bool { return true }

// New opens (creating if necessary) the SQLite database at path and
// bootstraps the schema.
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// churn under concurrent handlers.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON; PRAGMA busy_timeout=5000;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{sqlDB}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS stories (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'draft',
	video_url     TEXT,
	error_message TEXT,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scenes (
	id                   TEXT PRIMARY KEY,
	story_id             TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
	order_index          INTEGER NOT NULL DEFAULT 0,
	title                TEXT NOT NULL DEFAULT '',
	background_music_url TEXT,
	created_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS clips (
	id                      TEXT PRIMARY KEY,
	scene_id                TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	order_index             INTEGER NOT NULL DEFAULT 0,
	narration               TEXT NOT NULL DEFAULT '',
	narration_audio_url     TEXT,
	image_url               TEXT,
	background_image_url    TEXT,
	duration_sec            REAL,
	transition_type         TEXT NOT NULL DEFAULT 'none',
	transition_duration_sec REAL NOT NULL DEFAULT 0,
	created_at              TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at              TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tracks (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	order_index INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS track_clips (
	id             TEXT PRIMARY KEY,
	track_id       TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
	media_id       TEXT NOT NULL,
	start_time_sec REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS media_assets (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	url          TEXT NOT NULL,
	duration_sec REAL,
	description  TEXT,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS render_jobs (
	id            TEXT PRIMARY KEY,
	story_id      TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
	status        TEXT NOT NULL DEFAULT 'queued',
	attempts      INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at    TIMESTAMP,
	finished_at   TIMESTAMP,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scenes_story ON scenes(story_id, order_index);
CREATE INDEX IF NOT EXISTS idx_clips_scene ON clips(scene_id, order_index);
CREATE INDEX IF NOT EXISTS idx_tracks_project ON tracks(project_id, order_index);
CREATE INDEX IF NOT EXISTS idx_track_clips_track ON track_clips(track_id);
`
