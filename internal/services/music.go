package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/storyreel/storyreel/internal/models"
)

// Scorer rates how well a music candidate's description matches a free-text
// mood prompt. The default keyword-overlap implementation is heuristic and
// explicitly approximate: its output is a reasonable default ranking, not an
// authoritative one. Swap in an embedding-similarity scorer behind the same
// interface when one is available.
type Scorer interface {
	Score(promptTokens, candidateTokens []string) float64
}

// KeywordOverlapScorer counts shared tokens, normalized by prompt length.
type KeywordOverlapScorer struct{}

var _ Scorer = KeywordOverlapScorer{}

func (KeywordOverlapScorer) Score(promptTokens, candidateTokens []string) float64 {
	if len(promptTokens) == 0 {
		return 0
	}

	candidate := make(map[string]bool, len(candidateTokens))
	for _, tok := range candidateTokens {
		candidate[tok] = true
	}

	matches := 0
	for _, tok := range promptTokens {
		if candidate[tok] {
			matches++
		}
	}

	return float64(matches) / float64(len(promptTokens))
}

// Tokenize lowercases and splits free text on non-letter boundaries.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// MusicStore is the slice of the database the selector reads.
type MusicStore interface {
	ListMediaAssets(ctx context.Context, kind models.AssetKind) ([]models.MediaAsset, error)
}

// MusicSelector picks a background-music track from the media library for a
// free-text mood prompt.
type MusicSelector struct {
	store  MusicStore
	scorer Scorer
}

func NewMusicSelector(store MusicStore, scorer Scorer) *MusicSelector {
	if scorer == nil {
		scorer = KeywordOverlapScorer{}
	}
	return &MusicSelector{store: store, scorer: scorer}
}

// SelectTrack returns the library track whose description best matches the
// prompt. Candidates without a description score zero but remain eligible,
// so an empty library is the only failure.
func (m *MusicSelector) SelectTrack(ctx context.Context, prompt string) (*models.MediaAsset, error) {
	candidates, err := m.store.ListMediaAssets(ctx, models.AssetBgmAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to list music library: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("music library is empty")
	}

	promptTokens := Tokenize(prompt)

	best := 0
	bestScore := -1.0
	for i, cand := range candidates {
		var candTokens []string
		if cand.Description != nil {
			candTokens = Tokenize(*cand.Description)
		}
		score := m.scorer.Score(promptTokens, candTokens)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	log.Printf("[Music] Selected %s for prompt %q (score=%.2f)", candidates[best].URL, prompt, bestScore)
	return &candidates[best], nil
}
