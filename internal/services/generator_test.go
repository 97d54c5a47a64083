package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyreel/storyreel/internal/models"
)

type fakeTTS struct {
	lastText  string
	lastVoice string
	err       error
}

func (f *fakeTTS) GenerateSpeech(_ context.Context, text, voiceName string) (*TTSResponse, error) {
	f.lastText = text
	f.lastVoice = voiceName
	if f.err != nil {
		return nil, f.err
	}
	return &TTSResponse{AudioData: []byte("tts-bytes"), Format: "mp3"}, nil
}

type fakeImages struct {
	lastPrompt string
	err        error
}

func (f *fakeImages) GenerateImage(_ context.Context, prompt, _ string) ([]byte, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png-bytes"), nil
}

type fakeGeneratorStore struct {
	fakeMusicStore
	narrationURLs map[uuid.UUID]string
	imageURLs     map[uuid.UUID]string
	bgURLs        map[uuid.UUID]string
	sceneMusic    map[uuid.UUID]string
}

func newFakeGeneratorStore() *fakeGeneratorStore {
	return &fakeGeneratorStore{
		narrationURLs: map[uuid.UUID]string{},
		imageURLs:     map[uuid.UUID]string{},
		bgURLs:        map[uuid.UUID]string{},
		sceneMusic:    map[uuid.UUID]string{},
	}
}

func (s *fakeGeneratorStore) UpdateClipNarrationAudio(_ context.Context, id uuid.UUID, url string) error {
	s.narrationURLs[id] = url
	return nil
}

func (s *fakeGeneratorStore) UpdateClipImage(_ context.Context, id uuid.UUID, url string) error {
	s.imageURLs[id] = url
	return nil
}

func (s *fakeGeneratorStore) UpdateClipBackgroundImage(_ context.Context, id uuid.UUID, url string) error {
	s.bgURLs[id] = url
	return nil
}

func (s *fakeGeneratorStore) UpdateSceneMusic(_ context.Context, sceneID uuid.UUID, url string) error {
	s.sceneMusic[sceneID] = url
	return nil
}

func newTestGenerator(t *testing.T, store *fakeGeneratorStore) (*AssetGenerator, *fakeTTS, *fakeImages, string) {
	t.Helper()
	tts := &fakeTTS{}
	images := &fakeImages{}
	staticRoot := t.TempDir()
	gen := NewAssetGenerator(images, tts, NewMusicSelector(store, nil), store, staticRoot)
	return gen, tts, images, staticRoot
}

func TestGenerateNarration(t *testing.T) {
	store := newFakeGeneratorStore()
	gen, tts, _, staticRoot := newTestGenerator(t, store)

	clip := &models.Clip{ID: uuid.New(), SceneID: uuid.New(), Narration: "Once upon a time"}

	url, err := gen.Generate(context.Background(), clip, models.AssetNarrationAudio, "nova")
	require.NoError(t, err)

	assert.Equal(t, "/generated/audio/"+clip.ID.String()+".mp3", url)
	assert.Equal(t, "Once upon a time", tts.lastText)
	assert.Equal(t, "nova", tts.lastVoice)
	assert.Equal(t, url, store.narrationURLs[clip.ID])

	data, readErr := os.ReadFile(filepath.Join(staticRoot, "generated", "audio", clip.ID.String()+".mp3"))
	require.NoError(t, readErr)
	assert.Equal(t, "tts-bytes", string(data))
}

func TestGenerateNarrationRequiresText(t *testing.T) {
	gen, _, _, _ := newTestGenerator(t, newFakeGeneratorStore())

	clip := &models.Clip{ID: uuid.New()}

	_, err := gen.Generate(context.Background(), clip, models.AssetNarrationAudio, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no narration text")
}

func TestGenerateMainImage(t *testing.T) {
	store := newFakeGeneratorStore()
	gen, _, images, _ := newTestGenerator(t, store)

	clip := &models.Clip{ID: uuid.New(), Narration: "A castle at dawn"}

	url, err := gen.Generate(context.Background(), clip, models.AssetMainImage, "")
	require.NoError(t, err)

	assert.Equal(t, "/generated/images/"+clip.ID.String()+".png", url)
	assert.Contains(t, images.lastPrompt, "A castle at dawn")
	assert.Equal(t, url, store.imageURLs[clip.ID])
}

func TestGenerateBackgroundImage(t *testing.T) {
	store := newFakeGeneratorStore()
	gen, _, _, _ := newTestGenerator(t, store)

	clip := &models.Clip{ID: uuid.New(), Narration: "A castle at dawn"}

	url, err := gen.Generate(context.Background(), clip, models.AssetBackgroundImage, "")
	require.NoError(t, err)

	assert.Equal(t, "/generated/images/"+clip.ID.String()+"_bg.png", url)
	assert.Equal(t, url, store.bgURLs[clip.ID])
}

func TestGenerateBgmAttachesToScene(t *testing.T) {
	store := newFakeGeneratorStore()
	store.assets = []models.MediaAsset{bgmAsset("/music/calm.mp3", "calm piano")}
	gen, _, _, _ := newTestGenerator(t, store)

	clip := &models.Clip{ID: uuid.New(), SceneID: uuid.New(), Narration: "calm evening"}

	url, err := gen.Generate(context.Background(), clip, models.AssetBgmAudio, "")
	require.NoError(t, err)

	assert.Equal(t, "/music/calm.mp3", url)
	assert.Equal(t, "/music/calm.mp3", store.sceneMusic[clip.SceneID])
}

func TestGenerateUnknownKind(t *testing.T) {
	gen, _, _, _ := newTestGenerator(t, newFakeGeneratorStore())

	clip := &models.Clip{ID: uuid.New(), Narration: "text"}

	_, err := gen.Generate(context.Background(), clip, models.AssetKind("hologram"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hologram")
}

func TestGenerateMissingFillsAbsentAssets(t *testing.T) {
	store := newFakeGeneratorStore()
	gen, _, _, _ := newTestGenerator(t, store)

	clip := &models.Clip{ID: uuid.New(), SceneID: uuid.New(), Narration: "story text"}

	require.NoError(t, gen.GenerateMissing(context.Background(), clip, "alloy"))

	require.NotNil(t, clip.NarrationAudioURL)
	require.NotNil(t, clip.ImageURL)
	assert.Equal(t, *clip.NarrationAudioURL, store.narrationURLs[clip.ID])
	assert.Equal(t, *clip.ImageURL, store.imageURLs[clip.ID])
}

func TestGenerateMissingSkipsPresentAssets(t *testing.T) {
	store := newFakeGeneratorStore()
	gen, tts, images, _ := newTestGenerator(t, store)

	audio := "/uploads/audio/existing.mp3"
	image := "/uploads/images/existing.png"
	clip := &models.Clip{
		ID:                uuid.New(),
		Narration:         "story text",
		NarrationAudioURL: &audio,
		ImageURL:          &image,
	}

	require.NoError(t, gen.GenerateMissing(context.Background(), clip, ""))

	assert.Empty(t, tts.lastText, "present narration must not regenerate")
	assert.Empty(t, images.lastPrompt, "present image must not regenerate")
	assert.Empty(t, store.narrationURLs)
	assert.Empty(t, store.imageURLs)
}

func TestGenerateMissingPropagatesTTSError(t *testing.T) {
	store := newFakeGeneratorStore()
	gen, tts, _, _ := newTestGenerator(t, store)
	tts.err = errors.New("voice service unavailable")

	clip := &models.Clip{ID: uuid.New(), Narration: "story text"}

	err := gen.GenerateMissing(context.Background(), clip, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice service unavailable")
	assert.Nil(t, clip.NarrationAudioURL)
}
