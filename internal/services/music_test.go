package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyreel/storyreel/internal/models"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"calm", "piano", "rain"}, Tokenize("Calm piano, rain!"))
	assert.Equal(t, []string{"lo", "fi", "beats", "24", "7"}, Tokenize("Lo-Fi beats 24/7"))
	assert.Empty(t, Tokenize("  ...  "))
	assert.Empty(t, Tokenize(""))
}

func TestKeywordOverlapScorer(t *testing.T) {
	scorer := KeywordOverlapScorer{}

	assert.Equal(t, 1.0, scorer.Score([]string{"calm", "piano"}, []string{"calm", "piano", "rain"}))
	assert.Equal(t, 0.5, scorer.Score([]string{"calm", "metal"}, []string{"calm", "piano"}))
	assert.Equal(t, 0.0, scorer.Score([]string{"metal"}, []string{"calm", "piano"}))
	assert.Equal(t, 0.0, scorer.Score(nil, []string{"calm"}))
	assert.Equal(t, 0.0, scorer.Score([]string{"calm"}, nil))
}

type fakeMusicStore struct {
	assets []models.MediaAsset
	err    error
}

func (s *fakeMusicStore) ListMediaAssets(_ context.Context, kind models.AssetKind) ([]models.MediaAsset, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.MediaAsset
	for _, a := range s.assets {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

func bgmAsset(url, description string) models.MediaAsset {
	return models.MediaAsset{
		ID:          uuid.New(),
		Kind:        models.AssetBgmAudio,
		URL:         url,
		Description: &description,
	}
}

func TestSelectTrackPicksBestMatch(t *testing.T) {
	store := &fakeMusicStore{assets: []models.MediaAsset{
		bgmAsset("/music/epic.mp3", "epic orchestral battle drums"),
		bgmAsset("/music/calm.mp3", "calm piano with soft rain"),
		bgmAsset("/music/synth.mp3", "upbeat retro synthwave"),
	}}

	selector := NewMusicSelector(store, nil)

	track, err := selector.SelectTrack(context.Background(), "calm rain at night")
	require.NoError(t, err)
	assert.Equal(t, "/music/calm.mp3", track.URL)
}

func TestSelectTrackEmptyLibrary(t *testing.T) {
	selector := NewMusicSelector(&fakeMusicStore{}, nil)

	_, err := selector.SelectTrack(context.Background(), "calm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestSelectTrackNoDescriptionStillEligible(t *testing.T) {
	undescribed := models.MediaAsset{ID: uuid.New(), Kind: models.AssetBgmAudio, URL: "/music/untitled.mp3"}
	store := &fakeMusicStore{assets: []models.MediaAsset{undescribed}}

	selector := NewMusicSelector(store, nil)

	track, err := selector.SelectTrack(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, "/music/untitled.mp3", track.URL)
}

func TestSelectTrackIgnoresOtherKinds(t *testing.T) {
	store := &fakeMusicStore{assets: []models.MediaAsset{
		{ID: uuid.New(), Kind: models.AssetMainImage, URL: "/images/x.png"},
		bgmAsset("/music/only.mp3", "anything"),
	}}

	selector := NewMusicSelector(store, nil)

	track, err := selector.SelectTrack(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "/music/only.mp3", track.URL)
}
