package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/storyreel/storyreel/internal/models"
)

// Store is the read-side of the database collaborator the orchestrator
// depends on. The pipeline never writes entity rows.
type Store interface {
	GetClip(ctx context.Context, id uuid.UUID) (*models.Clip, error)
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	GetStoryScenes(ctx context.Context, storyID uuid.UUID) ([]models.Scene, error)
	GetSceneClips(ctx context.Context, sceneID uuid.UUID) ([]models.Clip, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetProjectTracks(ctx context.Context, projectID uuid.UUID) ([]models.Track, error)
	GetTrackClips(ctx context.Context, trackID uuid.UUID) ([]models.TrackClip, error)
	GetMediaAsset(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
}

// notFounder marks errors for missing entity rows. Implemented by the db
// package's NotFoundError; declared here so the orchestrator does not import
// the concrete store.
type notFounder interface {
	NotFound() bool
}

// ExporterConfig carries the filesystem layout and tool binaries. Passed
// explicitly; the pipeline keeps no process-wide mutable state.
type ExporterConfig struct {
	TempRoot   string // workspace parent, one subdirectory per job
	ExportRoot string // final artifacts, keyed by entity ID
	StaticRoot string // local asset references resolve against this
	FFmpegBin  string
	FFprobeBin string

	// MaterializeLimit caps concurrent asset downloads within one job.
	MaterializeLimit int
}

// Exporter drives a render job through its states: Fetching, Materializing,
// Probing, Building, Executing, Delivering. Any failure surfaces as an
// ExportError naming the state; the workspace is released on every path.
type Exporter struct {
	store  Store
	runner Runner
	mat    *Materializer
	prober *Prober
	cfg    ExporterConfig
}

func NewExporter(store Store, runner Runner, cfg ExporterConfig) *Exporter {
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if cfg.FFprobeBin == "" {
		cfg.FFprobeBin = "ffprobe"
	}
	if cfg.MaterializeLimit <= 0 {
		cfg.MaterializeLimit = 4
	}
	return &Exporter{
		store:  store,
		runner: runner,
		mat:    NewMaterializer(cfg.StaticRoot),
		prober: NewProber(cfg.FFprobeBin, runner),
		cfg:    cfg,
	}
}

func fail(stage Stage, err error) error {
	return &ExportError{Stage: stage, Err: err}
}

// ExportClip renders one narrated still clip to an mp4 under the export
// root and returns its path.
func (e *Exporter) ExportClip(ctx context.Context, clipID uuid.UUID) (string, error) {
	clip, err := e.store.GetClip(ctx, clipID)
	if err != nil {
		return "", fail(StageFetching, err)
	}

	if clip.NarrationAudioURL == nil || *clip.NarrationAudioURL == "" {
		return "", fail(StageFetching, &AssetNotFoundError{Ref: fmt.Sprintf("narration audio for clip %s", clip.ID)})
	}

	if err := (Transition{Type: clip.TransitionType, DurationSec: clip.TransitionDurationSec}).Validate(); err != nil {
		return "", fail(StageBuilding, err)
	}

	return WithWorkspaceResult(e.cfg.TempRoot, "export-clip", func(dir string) (string, error) {
		out, err := e.renderClipInto(ctx, clip, dir, filepath.Join(dir, fmt.Sprintf("clip_%s.mp4", clip.ID)))
		if err != nil {
			return "", err
		}
		return e.deliver(out, clip.ID, fmt.Sprintf("clip_%s.mp4", clip.ID))
	})
}

// renderClipInto materializes a clip's assets into dir, resolves its
// effective duration, and renders the still+audio composition to outputPath.
func (e *Exporter) renderClipInto(ctx context.Context, clip *models.Clip, dir, outputPath string) (string, error) {
	audioPath := filepath.Join(dir, refFilename(fmt.Sprintf("audio_%s", clip.ID), *clip.NarrationAudioURL, ".mp3"))
	imagePath := ""

	// Materializing: image and audio fetch concurrently, first failure wins.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.mat.Materialize(gctx, *clip.NarrationAudioURL, audioPath)
	})
	if clip.ImageURL != nil && *clip.ImageURL != "" {
		imagePath = filepath.Join(dir, refFilename(fmt.Sprintf("image_%s", clip.ID), *clip.ImageURL, ".png"))
		ref := *clip.ImageURL
		dest := imagePath
		g.Go(func() error {
			return e.mat.Materialize(gctx, ref, dest)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fail(StageMaterializing, err)
	}

	// Probing: only when the clip has no explicit duration.
	probed := 0.0
	if clip.DurationSec == nil {
		var err error
		probed, err = e.prober.Duration(ctx, audioPath)
		if err != nil {
			return "", fail(StageProbing, err)
		}
	}

	duration, _ := clip.EffectiveDuration(probed)

	spec := StillClipSpec{
		ImagePath:   imagePath,
		AudioPath:   audioPath,
		DurationSec: duration,
		ClipID:      clip.ID,
		OutputPath:  outputPath,
	}

	args, err := spec.Build()
	if err != nil {
		return "", fail(StageBuilding, err)
	}

	if _, err := e.runner.Run(ctx, e.cfg.FFmpegBin, args); err != nil {
		return "", fail(StageExecuting, err)
	}

	return outputPath, nil
}

// ExportStory renders every scene's clips in order, concatenates them per
// scene (mixing background music when the scene has any), concatenates the
// scene videos, and delivers the final mp4.
func (e *Exporter) ExportStory(ctx context.Context, storyID uuid.UUID) (string, error) {
	story, err := e.store.GetStory(ctx, storyID)
	if err != nil {
		return "", fail(StageFetching, err)
	}

	scenes, err := e.store.GetStoryScenes(ctx, story.ID)
	if err != nil {
		return "", fail(StageFetching, err)
	}
	models.SortScenes(scenes)

	sceneClips := make(map[uuid.UUID][]models.Clip, len(scenes))
	for _, scene := range scenes {
		clips, err := e.store.GetSceneClips(ctx, scene.ID)
		if err != nil {
			return "", fail(StageFetching, err)
		}
		models.SortClips(clips)

		for i := range clips {
			clip := &clips[i]
			if clip.NarrationAudioURL == nil || *clip.NarrationAudioURL == "" {
				return "", fail(StageFetching, &AssetNotFoundError{Ref: fmt.Sprintf("narration audio for clip %s", clip.ID)})
			}
			if err := (Transition{Type: clip.TransitionType, DurationSec: clip.TransitionDurationSec}).Validate(); err != nil {
				return "", fail(StageBuilding, err)
			}
		}
		sceneClips[scene.ID] = clips
	}

	return WithWorkspaceResult(e.cfg.TempRoot, "export-story", func(dir string) (string, error) {
		var sceneVideos []string

		for si, scene := range scenes {
			clips := sceneClips[scene.ID]
			if len(clips) == 0 {
				continue
			}

			// Clip renders run sequentially: each is already an ffmpeg
			// invocation saturating the encoder.
			var clipVideos []string
			for _, clip := range clips {
				c := clip
				out, err := e.renderClipInto(ctx, &c, dir, filepath.Join(dir, fmt.Sprintf("scene%d_clip_%s.mp4", si, c.ID)))
				if err != nil {
					return "", err
				}
				clipVideos = append(clipVideos, out)
			}

			scenePath := filepath.Join(dir, fmt.Sprintf("scene_%d.mp4", si))
			args, err := (ConcatSpec{Workspace: dir, InputPaths: clipVideos, OutputPath: scenePath}).Build()
			if err != nil {
				return "", fail(StageBuilding, err)
			}
			if _, err := e.runner.Run(ctx, e.cfg.FFmpegBin, args); err != nil {
				return "", fail(StageExecuting, err)
			}

			if scene.BackgroundMusicURL != nil && *scene.BackgroundMusicURL != "" {
				mixed, err := e.mixSceneMusic(ctx, dir, si, scenePath, *scene.BackgroundMusicURL)
				if err != nil {
					return "", err
				}
				scenePath = mixed
			}

			sceneVideos = append(sceneVideos, scenePath)
		}

		finalPath := filepath.Join(dir, fmt.Sprintf("story_%s.mp4", story.ID))
		args, err := (ConcatSpec{Workspace: dir, InputPaths: sceneVideos, OutputPath: finalPath}).Build()
		if err != nil {
			return "", fail(StageBuilding, err)
		}
		if _, err := e.runner.Run(ctx, e.cfg.FFmpegBin, args); err != nil {
			return "", fail(StageExecuting, err)
		}

		return e.deliver(finalPath, story.ID, fmt.Sprintf("story_%s.mp4", story.ID))
	})
}

func (e *Exporter) mixSceneMusic(ctx context.Context, dir string, sceneIdx int, videoPath, musicRef string) (string, error) {
	musicPath := filepath.Join(dir, fmt.Sprintf("music_%d%s", sceneIdx, extFromRef(musicRef, ".mp3")))
	if err := e.mat.Materialize(ctx, musicRef, musicPath); err != nil {
		return "", fail(StageMaterializing, err)
	}

	mixedPath := filepath.Join(dir, fmt.Sprintf("scene_%d_mixed.mp4", sceneIdx))
	args := MusicMixSpec{VideoPath: videoPath, MusicPath: musicPath, OutputPath: mixedPath}.Build()
	if _, err := e.runner.Run(ctx, e.cfg.FFmpegBin, args); err != nil {
		return "", fail(StageExecuting, err)
	}
	return mixedPath, nil
}

// ExportTimeline flattens a project's tracks into a single start-time
// ordered sequence, stream-copy concatenates the referenced media, and
// delivers the result. Media lookups happen before any fetch or spawn so a
// dangling reference fails fast.
func (e *Exporter) ExportTimeline(ctx context.Context, projectID uuid.UUID) (string, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return "", fail(StageFetching, err)
	}

	tracks, err := e.store.GetProjectTracks(ctx, project.ID)
	if err != nil {
		return "", fail(StageFetching, err)
	}

	trackRefs := make(map[uuid.UUID][]models.TrackClip, len(tracks))
	for _, track := range tracks {
		refs, err := e.store.GetTrackClips(ctx, track.ID)
		if err != nil {
			return "", fail(StageFetching, err)
		}
		trackRefs[track.ID] = refs
	}

	flat := models.FlattenTimeline(tracks, trackRefs)
	if len(flat) == 0 {
		return "", fail(StageBuilding, &EmptyTimelineError{})
	}

	media := make([]*models.MediaAsset, len(flat))
	for i, ref := range flat {
		m, err := e.store.GetMediaAsset(ctx, ref.MediaID)
		if err != nil {
			var nf notFounder
			if errors.As(err, &nf) && nf.NotFound() {
				return "", fail(StageFetching, &MissingMediaError{MediaID: ref.MediaID})
			}
			return "", fail(StageFetching, err)
		}
		media[i] = m
	}

	return WithWorkspaceResult(e.cfg.TempRoot, "export-timeline", func(dir string) (string, error) {
		// Materializing: bounded fan-out, all-or-nothing.
		inputs := make([]string, len(media))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.MaterializeLimit)
		for i, m := range media {
			dest := filepath.Join(dir, fmt.Sprintf("input_%03d%s", i, extFromRef(m.URL, ".mp4")))
			inputs[i] = dest
			ref := m.URL
			g.Go(func() error {
				return e.mat.Materialize(gctx, ref, dest)
			})
		}
		if err := g.Wait(); err != nil {
			return "", fail(StageMaterializing, err)
		}

		outputPath := filepath.Join(dir, fmt.Sprintf("project_%s.mp4", project.ID))
		args, err := (ConcatSpec{Workspace: dir, InputPaths: inputs, OutputPath: outputPath}).Build()
		if err != nil {
			return "", fail(StageBuilding, err)
		}
		if _, err := e.runner.Run(ctx, e.cfg.FFmpegBin, args); err != nil {
			return "", fail(StageExecuting, err)
		}

		return e.deliver(outputPath, project.ID, fmt.Sprintf("project_%s.mp4", project.ID))
	})
}

// deliver copies a finished render out of the workspace into the export
// root, keyed by the owning entity so concurrent jobs for different
// entities never collide.
func (e *Exporter) deliver(src string, ownerID uuid.UUID, filename string) (string, error) {
	destDir := filepath.Join(e.cfg.ExportRoot, ownerID.String())
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fail(StageDelivering, fmt.Errorf("failed to create export dir: %w", err))
	}

	dest := filepath.Join(destDir, filename)
	if err := copyFile(src, dest); err != nil {
		return "", fail(StageDelivering, err)
	}

	log.Printf("[Export] delivered %s", dest)
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dest, err)
	}

	return out.Close()
}

// extFromRef extracts a file extension from an asset reference, ignoring
// any query string. fallback covers extension-less URLs.
func extFromRef(ref, fallback string) string {
	path := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		path = u.Path
	}
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return fallback
}

// refFilename builds a workspace file name that keeps the reference's
// original base name, prefixed to stay unique within the workspace.
func refFilename(prefix, ref, fallbackExt string) string {
	path := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		path = u.Path
	}
	base := filepath.Base(path)
	if base == "." || base == "/" || base == "" {
		base = "asset" + fallbackExt
	}
	return prefix + "_" + base
}
