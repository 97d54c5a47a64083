package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storyreel/storyreel/internal/db"
	"github.com/storyreel/storyreel/internal/models"
	"github.com/storyreel/storyreel/internal/queue"
	"github.com/storyreel/storyreel/internal/render"
	"github.com/storyreel/storyreel/internal/services"
)

type Handler struct {
	db        *db.DB
	queue     *queue.Queue
	exporter  *render.Exporter
	generator *services.AssetGenerator
}

func NewHandler(database *db.DB, q *queue.Queue, exporter *render.Exporter, generator *services.AssetGenerator) *Handler {
	return &Handler{
		db:        database,
		queue:     q,
		exporter:  exporter,
		generator: generator,
	}
}

// GetClip handles GET /v1/clips/{id}
func (h *Handler) GetClip(w http.ResponseWriter, r *http.Request) {
	clipID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clip ID")
		return
	}

	clip, err := h.db.GetClip(r.Context(), clipID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.ClipResponse{Clip: *clip})
}

// GenerateClipAssets handles POST /v1/clips/{id}/assets.
// Body: { "asset_type": "...", "voice_name": "..." } — both optional. With
// no asset_type, whatever the clip is missing gets generated.
func (h *Handler) GenerateClipAssets(w http.ResponseWriter, r *http.Request) {
	clipID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clip ID")
		return
	}

	var req models.GenerateAssetsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	clip, err := h.db.GetClip(r.Context(), clipID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	voiceName := ""
	if req.VoiceName != nil {
		voiceName = *req.VoiceName
	}

	if req.AssetType != nil {
		kind, err := models.ParseAssetKind(*req.AssetType)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := h.generator.Generate(r.Context(), clip, kind, voiceName); err != nil {
			respondFailure(w, err)
			return
		}
	} else {
		if err := h.generator.GenerateMissing(r.Context(), clip, voiceName); err != nil {
			respondFailure(w, err)
			return
		}
	}

	// Re-read so the response reflects the persisted URLs.
	updated, err := h.db.GetClip(r.Context(), clipID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.ClipResponse{Clip: *updated})
}

// ExportClip handles GET /v1/clips/{id}/export. The clip is fully rendered
// to the export directory first; only a validated file starts streaming, so
// failures still produce a clean JSON error.
func (h *Handler) ExportClip(w http.ResponseWriter, r *http.Request) {
	clipID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clip ID")
		return
	}

	outputPath, err := h.exporter.ExportClip(r.Context(), clipID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	h.serveVideo(w, r, outputPath)
}

// ExportProject handles GET /v1/projects/{id}/export — the flat-timeline
// concatenation export.
func (h *Handler) ExportProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	outputPath, err := h.exporter.ExportTimeline(r.Context(), projectID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	h.serveVideo(w, r, outputPath)
}

// GetStory handles GET /v1/stories/{id}
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	story, err := h.db.GetStory(r.Context(), storyID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	scenes, err := h.db.GetStoryScenes(r.Context(), story.ID)
	if err != nil {
		respondFailure(w, err)
		return
	}
	models.SortScenes(scenes)

	resp := models.StoryResponse{Story: *story}
	for _, scene := range scenes {
		clips, err := h.db.GetSceneClips(r.Context(), scene.ID)
		if err != nil {
			respondFailure(w, err)
			return
		}
		models.SortClips(clips)
		resp.Scenes = append(resp.Scenes, models.SceneResponse{Scene: scene, Clips: clips})
	}

	respondJSON(w, http.StatusOK, resp)
}

// RenderStory handles POST /v1/stories/{id}/render — enqueues an async
// render job and returns immediately.
func (h *Handler) RenderStory(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	story, err := h.db.GetStory(r.Context(), storyID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	job := &models.RenderJob{
		ID:      uuid.New(),
		StoryID: story.ID,
		Status:  models.JobStatusQueued,
	}

	if err := h.db.CreateRenderJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create render job")
		return
	}

	if err := h.queue.EnqueueRenderStory(r.Context(), story.ID, job.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue render job")
		return
	}

	if err := h.db.UpdateStoryStatus(r.Context(), story.ID, models.StoryStatusQueued); err != nil {
		log.Printf("Failed to update story status: %v", err)
	}

	respondJSON(w, http.StatusAccepted, models.RenderStoryResponse{
		JobID:   job.ID,
		StoryID: story.ID,
		Status:  models.StoryStatusQueued,
	})
}

// DownloadStory handles GET /v1/stories/{id}/download — streams the
// finished render produced by the async worker.
func (h *Handler) DownloadStory(w http.ResponseWriter, r *http.Request) {
	storyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	story, err := h.db.GetStory(r.Context(), storyID)
	if err != nil {
		respondFailure(w, err)
		return
	}

	if story.VideoURL == nil || *story.VideoURL == "" {
		respondError(w, http.StatusNotFound, "Video not ready")
		return
	}

	h.serveVideo(w, r, *story.VideoURL)
}

// serveVideo streams a fully rendered file with attachment headers.
func (h *Handler) serveVideo(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("Failed to open rendered video %s: %v", path, err)
		respondError(w, http.StatusInternalServerError, "Rendered video unavailable")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Rendered video unavailable")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// respondFailure maps the pipeline's typed errors to HTTP statuses. Tool
// stderr stays in the server log; clients get the message without internal
// paths.
func respondFailure(w http.ResponseWriter, err error) {
	var (
		notFound    *db.NotFoundError
		assetMiss   *render.AssetNotFoundError
		fetchErr    *render.AssetFetchError
		indetErr    *render.IndeterminateDurationError
		emptyErr    *render.EmptyTimelineError
		missMedia   *render.MissingMediaError
		launchErr   *render.ToolLaunchError
		toolErr     *render.ExternalToolError
		timeoutErr  *render.ToolTimeoutError
		workspErr   *render.WorkspaceError
		exportError *render.ExportError
	)

	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &assetMiss):
		respondError(w, http.StatusNotFound, assetMiss.Error())
	case errors.As(err, &missMedia):
		respondError(w, http.StatusNotFound, missMedia.Error())
	case errors.As(err, &fetchErr):
		respondError(w, http.StatusBadGateway, fetchErr.Error())
	case errors.As(err, &indetErr):
		respondError(w, http.StatusBadRequest, indetErr.Error())
	case errors.As(err, &emptyErr):
		respondError(w, http.StatusBadRequest, emptyErr.Error())
	case errors.As(err, &toolErr):
		log.Printf("Render tool failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Video rendering failed")
	case errors.As(err, &timeoutErr):
		log.Printf("Render tool timed out: %v", err)
		respondError(w, http.StatusInternalServerError, "Video rendering timed out")
	case errors.As(err, &launchErr):
		log.Printf("Render tool unavailable: %v", err)
		respondError(w, http.StatusInternalServerError, "Video rendering unavailable")
	case errors.As(err, &workspErr):
		log.Printf("Workspace failure: %v", err)
		respondError(w, http.StatusInternalServerError, "Video rendering failed")
	case errors.As(err, &exportError):
		// An ExportError whose cause matched none of the above.
		log.Printf("Export failed at stage %s: %v", exportError.Stage, err)
		respondError(w, http.StatusInternalServerError, "Export failed")
	default:
		log.Printf("Unexpected error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
