package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/storyreel/storyreel/internal/models"
)

// GeneratorStore is the write-side the generator needs: persisting the URL
// of a produced asset back onto its clip or scene. These are the only entity
// writes in the service.
type GeneratorStore interface {
	MusicStore
	UpdateClipNarrationAudio(ctx context.Context, id uuid.UUID, audioURL string) error
	UpdateClipImage(ctx context.Context, id uuid.UUID, imageURL string) error
	UpdateClipBackgroundImage(ctx context.Context, id uuid.UUID, imageURL string) error
	UpdateSceneMusic(ctx context.Context, sceneID uuid.UUID, musicURL string) error
}

type generateFn func(ctx context.Context, clip *models.Clip, voiceName string) (string, error)

// AssetGenerator produces a clip's missing assets on demand. Dispatch is a
// closed mapping from AssetKind to generator function; an unknown kind is an
// error rather than a silent no-op.
type AssetGenerator struct {
	images     ImageService
	tts        TTSService
	music      *MusicSelector
	store      GeneratorStore
	staticRoot string

	dispatch map[models.AssetKind]generateFn
}

func NewAssetGenerator(images ImageService, tts TTSService, music *MusicSelector, store GeneratorStore, staticRoot string) *AssetGenerator {
	g := &AssetGenerator{
		images:     images,
		tts:        tts,
		music:      music,
		store:      store,
		staticRoot: staticRoot,
	}
	g.dispatch = map[models.AssetKind]generateFn{
		models.AssetMainImage:       g.generateMainImage,
		models.AssetBackgroundImage: g.generateBackgroundImage,
		models.AssetNarrationAudio:  g.generateNarration,
		models.AssetBgmAudio:        g.generateBgm,
	}
	return g
}

// Generate produces one asset kind for the clip, persists the file under
// the static root, writes the URL back, and returns it.
func (g *AssetGenerator) Generate(ctx context.Context, clip *models.Clip, kind models.AssetKind, voiceName string) (string, error) {
	fn, ok := g.dispatch[kind]
	if !ok {
		return "", fmt.Errorf("no generator for asset kind %q", kind)
	}
	return fn(ctx, clip, voiceName)
}

// GenerateMissing fills in whichever of the clip's assets are absent:
// narration audio always (it is required for export), the main image when
// the clip has none.
func (g *AssetGenerator) GenerateMissing(ctx context.Context, clip *models.Clip, voiceName string) error {
	if clip.NarrationAudioURL == nil || *clip.NarrationAudioURL == "" {
		url, err := g.generateNarration(ctx, clip, voiceName)
		if err != nil {
			return err
		}
		clip.NarrationAudioURL = &url
	}

	if clip.ImageURL == nil || *clip.ImageURL == "" {
		url, err := g.generateMainImage(ctx, clip, "")
		if err != nil {
			return err
		}
		clip.ImageURL = &url
	}

	return nil
}

func (g *AssetGenerator) generateNarration(ctx context.Context, clip *models.Clip, voiceName string) (string, error) {
	if clip.Narration == "" {
		return "", fmt.Errorf("clip %s has no narration text", clip.ID)
	}

	resp, err := g.tts.GenerateSpeech(ctx, clip.Narration, voiceName)
	if err != nil {
		return "", fmt.Errorf("narration generation failed: %w", err)
	}

	url, err := g.saveAsset("generated/audio", fmt.Sprintf("%s.%s", clip.ID, resp.Format), resp.AudioData)
	if err != nil {
		return "", err
	}

	if err := g.store.UpdateClipNarrationAudio(ctx, clip.ID, url); err != nil {
		return "", fmt.Errorf("failed to persist narration URL: %w", err)
	}

	return url, nil
}

func (g *AssetGenerator) generateMainImage(ctx context.Context, clip *models.Clip, _ string) (string, error) {
	data, err := g.images.GenerateImage(ctx, imagePrompt(clip), "9:16")
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}

	url, err := g.saveAsset("generated/images", fmt.Sprintf("%s.png", clip.ID), data)
	if err != nil {
		return "", err
	}

	if err := g.store.UpdateClipImage(ctx, clip.ID, url); err != nil {
		return "", fmt.Errorf("failed to persist image URL: %w", err)
	}

	return url, nil
}

func (g *AssetGenerator) generateBackgroundImage(ctx context.Context, clip *models.Clip, _ string) (string, error) {
	prompt := fmt.Sprintf("Soft, defocused background scene suiting this narration: %s", clip.Narration)

	data, err := g.images.GenerateImage(ctx, prompt, "9:16")
	if err != nil {
		return "", fmt.Errorf("background image generation failed: %w", err)
	}

	url, err := g.saveAsset("generated/images", fmt.Sprintf("%s_bg.png", clip.ID), data)
	if err != nil {
		return "", err
	}

	if err := g.store.UpdateClipBackgroundImage(ctx, clip.ID, url); err != nil {
		return "", fmt.Errorf("failed to persist background image URL: %w", err)
	}

	return url, nil
}

// generateBgm picks a library track for the clip's narration mood and
// attaches it to the owning scene. Selection is best-effort keyword
// matching, not generation from scratch.
func (g *AssetGenerator) generateBgm(ctx context.Context, clip *models.Clip, _ string) (string, error) {
	track, err := g.music.SelectTrack(ctx, clip.Narration)
	if err != nil {
		return "", fmt.Errorf("music selection failed: %w", err)
	}

	if err := g.store.UpdateSceneMusic(ctx, clip.SceneID, track.URL); err != nil {
		return "", fmt.Errorf("failed to persist music URL: %w", err)
	}

	return track.URL, nil
}

// saveAsset writes data under the static root and returns the URL path the
// materializer later resolves.
func (g *AssetGenerator) saveAsset(relDir, filename string, data []byte) (string, error) {
	dir := filepath.Join(g.staticRoot, relDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create asset dir: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}

	url := "/" + relDir + "/" + filename
	log.Printf("[Assets] Saved %s (%d bytes)", url, len(data))
	return url, nil
}

func imagePrompt(clip *models.Clip) string {
	return fmt.Sprintf("Cinematic storyboard illustration for this narration: %s", clip.Narration)
}
