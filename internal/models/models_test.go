package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssetKind(t *testing.T) {
	for _, s := range []string{"main_image", "background_image", "narration_audio", "bgm_audio"} {
		kind, err := ParseAssetKind(s)
		require.NoError(t, err)
		assert.Equal(t, AssetKind(s), kind)
	}

	_, err := ParseAssetKind("hologram")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hologram")
}

func TestKnownTransition(t *testing.T) {
	for _, tr := range []TransitionType{TransitionNone, TransitionCut, TransitionFade, TransitionDissolve} {
		assert.True(t, KnownTransition(tr), "expected %q to be known", tr)
	}
	assert.False(t, KnownTransition("wipe"))
	assert.False(t, KnownTransition(""))
}

func TestSortClipsByOrderIndex(t *testing.T) {
	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	c := uuid.MustParse("cccccccc-0000-0000-0000-000000000000")

	clips := []Clip{
		{ID: c, OrderIndex: 2},
		{ID: a, OrderIndex: 0},
		{ID: b, OrderIndex: 1},
	}

	SortClips(clips)

	require.Len(t, clips, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{clips[0].OrderIndex, clips[1].OrderIndex, clips[2].OrderIndex})
	assert.Equal(t, a, clips[0].ID)
	assert.Equal(t, b, clips[1].ID)
	assert.Equal(t, c, clips[2].ID)
}

func TestSortClipsTieBreaksByID(t *testing.T) {
	lo := uuid.MustParse("11111111-0000-0000-0000-000000000000")
	hi := uuid.MustParse("99999999-0000-0000-0000-000000000000")

	clips := []Clip{
		{ID: hi, OrderIndex: 5},
		{ID: lo, OrderIndex: 5},
	}

	SortClips(clips)

	assert.Equal(t, lo, clips[0].ID)
	assert.Equal(t, hi, clips[1].ID)
}

func TestSortScenes(t *testing.T) {
	s1 := uuid.MustParse("11111111-0000-0000-0000-000000000000")
	s2 := uuid.MustParse("22222222-0000-0000-0000-000000000000")

	scenes := []Scene{
		{ID: s2, OrderIndex: 1},
		{ID: s1, OrderIndex: 0},
	}

	SortScenes(scenes)

	assert.Equal(t, s1, scenes[0].ID)
	assert.Equal(t, s2, scenes[1].ID)
}

func TestFlattenTimelineOrdersByStartTime(t *testing.T) {
	trackA := Track{ID: uuid.New(), OrderIndex: 0}
	trackB := Track{ID: uuid.New(), OrderIndex: 1}

	mediaA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	mediaB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	mediaC := uuid.MustParse("cccccccc-0000-0000-0000-000000000000")

	refs := map[uuid.UUID][]TrackClip{
		// Track A holds the later clip, track B the earlier one: flattening
		// must interleave across tracks by start time.
		trackA.ID: {{ID: uuid.New(), TrackID: trackA.ID, MediaID: mediaC, StartTimeSec: 10.0}},
		trackB.ID: {
			{ID: uuid.New(), TrackID: trackB.ID, MediaID: mediaA, StartTimeSec: 0.0},
			{ID: uuid.New(), TrackID: trackB.ID, MediaID: mediaB, StartTimeSec: 5.0},
		},
	}

	flat := FlattenTimeline([]Track{trackA, trackB}, refs)

	require.Len(t, flat, 3)
	assert.Equal(t, mediaA, flat[0].MediaID)
	assert.Equal(t, mediaB, flat[1].MediaID)
	assert.Equal(t, mediaC, flat[2].MediaID)
}

func TestFlattenTimelineTieBreaksByMediaID(t *testing.T) {
	track := Track{ID: uuid.New(), OrderIndex: 0}

	lo := uuid.MustParse("11111111-0000-0000-0000-000000000000")
	hi := uuid.MustParse("99999999-0000-0000-0000-000000000000")

	refs := map[uuid.UUID][]TrackClip{
		track.ID: {
			{ID: uuid.New(), TrackID: track.ID, MediaID: hi, StartTimeSec: 3.0},
			{ID: uuid.New(), TrackID: track.ID, MediaID: lo, StartTimeSec: 3.0},
		},
	}

	flat := FlattenTimeline([]Track{track}, refs)

	require.Len(t, flat, 2)
	assert.Equal(t, lo, flat[0].MediaID)
	assert.Equal(t, hi, flat[1].MediaID)
}

func TestFlattenTimelineEmpty(t *testing.T) {
	flat := FlattenTimeline(nil, nil)
	assert.Empty(t, flat)
}

func TestEffectiveDurationExplicitWins(t *testing.T) {
	explicit := 5.0
	clip := Clip{DurationSec: &explicit}

	dur, ok := clip.EffectiveDuration(7.3)
	require.True(t, ok)
	assert.Equal(t, 5.0, dur)
}

func TestEffectiveDurationFallsBackToProbe(t *testing.T) {
	clip := Clip{}

	dur, ok := clip.EffectiveDuration(7.3)
	require.True(t, ok)
	assert.Equal(t, 7.3, dur)
}

func TestEffectiveDurationUnknown(t *testing.T) {
	clip := Clip{}

	_, ok := clip.EffectiveDuration(0)
	assert.False(t, ok)

	_, ok = clip.EffectiveDuration(-1)
	assert.False(t, ok)
}
