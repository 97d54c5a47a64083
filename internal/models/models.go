package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Enums

type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"
	StoryStatusQueued    StoryStatus = "queued"
	StoryStatusRendering StoryStatus = "rendering"
	StoryStatusCompleted StoryStatus = "completed"
	StoryStatusFailed    StoryStatus = "failed"
)

// TransitionType is the transition applied after a clip. Only "none" and
// "cut" are rendered today; "fade" and "dissolve" are accepted and validated
// but rendered as straight cuts until cross-fade compositing lands.
type TransitionType string

const (
	TransitionNone     TransitionType = "none"
	TransitionCut      TransitionType = "cut"
	TransitionFade     TransitionType = "fade"
	TransitionDissolve TransitionType = "dissolve"
)

// KnownTransition reports whether t is a member of the transition enum.
func KnownTransition(t TransitionType) bool {
	switch t {
	case TransitionNone, TransitionCut, TransitionFade, TransitionDissolve:
		return true
	}
	return false
}

// AssetKind is the closed set of generatable assets. Dispatch on this enum
// instead of free-form strings so an unrecognized kind is an error, not a
// silent no-op.
type AssetKind string

const (
	AssetMainImage       AssetKind = "main_image"
	AssetBackgroundImage AssetKind = "background_image"
	AssetNarrationAudio  AssetKind = "narration_audio"
	AssetBgmAudio        AssetKind = "bgm_audio"
)

// ParseAssetKind validates a request-supplied asset type string.
func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(s) {
	case AssetMainImage, AssetBackgroundImage, AssetNarrationAudio, AssetBgmAudio:
		return AssetKind(s), nil
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Models

// Clip is the smallest narrated unit: one image plus one narration track.
// DurationSec nil means the effective duration is derived from the probed
// narration audio at render time.
type Clip struct {
	ID                    uuid.UUID      `json:"id"`
	SceneID               uuid.UUID      `json:"scene_id"`
	OrderIndex            int            `json:"order_index"`
	Narration             string         `json:"narration"`
	NarrationAudioURL     *string        `json:"narration_audio_url,omitempty"`
	ImageURL              *string        `json:"image_url,omitempty"`
	BackgroundImageURL    *string        `json:"background_image_url,omitempty"`
	DurationSec           *float64       `json:"duration_sec,omitempty"`
	TransitionType        TransitionType `json:"transition_type"`
	TransitionDurationSec float64        `json:"transition_duration_sec"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

type Scene struct {
	ID                 uuid.UUID `json:"id"`
	StoryID            uuid.UUID `json:"story_id"`
	OrderIndex         int       `json:"order_index"`
	Title              string    `json:"title"`
	BackgroundMusicURL *string   `json:"background_music_url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Story struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Status       StoryStatus `json:"status"`
	VideoURL     *string     `json:"video_url,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Project is the standalone editor's flat timeline model: ordered tracks of
// clip references, flattened into one global sequence at export time.
type Project struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Track struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"project_id"`
	OrderIndex int       `json:"order_index"`
}

// TrackClip references a media asset placed on a track at a point in time.
type TrackClip struct {
	ID           uuid.UUID `json:"id"`
	TrackID      uuid.UUID `json:"track_id"`
	MediaID      uuid.UUID `json:"media_id"`
	StartTimeSec float64   `json:"start_time_sec"`
}

// MediaAsset is an uploaded or generated media file known to the editor.
type MediaAsset struct {
	ID          uuid.UUID `json:"id"`
	Kind        AssetKind `json:"kind"`
	URL         string    `json:"url"`
	DurationSec *float64  `json:"duration_sec,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RenderJob struct {
	ID           uuid.UUID  `json:"id"`
	StoryID      uuid.UUID  `json:"story_id"`
	Status       JobStatus  `json:"status"`
	Attempts     int        `json:"attempts"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Ordering

// SortClips orders clips by order index ascending, ties broken by ID
// ascending. The sort is stable so repeated runs over unchanged data always
// produce the same sequence.
func SortClips(clips []Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		if clips[i].OrderIndex != clips[j].OrderIndex {
			return clips[i].OrderIndex < clips[j].OrderIndex
		}
		return clips[i].ID.String() < clips[j].ID.String()
	})
}

// SortScenes orders scenes by their explicit order index, ID tiebreak.
func SortScenes(scenes []Scene) {
	sort.SliceStable(scenes, func(i, j int) bool {
		if scenes[i].OrderIndex != scenes[j].OrderIndex {
			return scenes[i].OrderIndex < scenes[j].OrderIndex
		}
		return scenes[i].ID.String() < scenes[j].ID.String()
	})
}

// FlattenTimeline merges every track's clip references into one sequence
// sorted by start time ascending, regardless of which track each reference
// came from. Tracks are visited in order index and ties break by media ID so
// the result is deterministic.
func FlattenTimeline(tracks []Track, refs map[uuid.UUID][]TrackClip) []TrackClip {
	ordered := make([]Track, len(tracks))
	copy(ordered, tracks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	var flat []TrackClip
	for _, t := range ordered {
		flat = append(flat, refs[t.ID]...)
	}
	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].StartTimeSec != flat[j].StartTimeSec {
			return flat[i].StartTimeSec < flat[j].StartTimeSec
		}
		return flat[i].MediaID.String() < flat[j].MediaID.String()
	})
	return flat
}

// EffectiveDuration returns the clip's explicit duration when set, otherwise
// the probed narration duration. probed <= 0 means "unknown" and yields
// ok=false; a zero-length clip must never reach the command builder.
func (c *Clip) EffectiveDuration(probed float64) (float64, bool) {
	if c.DurationSec != nil && *c.DurationSec > 0 {
		return *c.DurationSec, true
	}
	if probed > 0 {
		return probed, true
	}
	return 0, false
}

// DTOs for API responses

type ClipResponse struct {
	Clip
	EffectiveDurationSec *float64 `json:"effective_duration_sec,omitempty"`
}

type StoryResponse struct {
	Story
	Scenes []SceneResponse `json:"scenes,omitempty"`
}

type SceneResponse struct {
	Scene
	Clips []Clip `json:"clips,omitempty"`
}

type GenerateAssetsRequest struct {
	AssetType *string `json:"asset_type,omitempty"` // nil = generate whatever is missing
	VoiceName *string `json:"voice_name,omitempty"`
}

type RenderStoryResponse struct {
	JobID   uuid.UUID   `json:"job_id"`
	StoryID uuid.UUID   `json:"story_id"`
	Status  StoryStatus `json:"status"`
}
