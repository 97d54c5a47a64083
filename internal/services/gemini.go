package services

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"
)

const geminiImageModel = "gemini-2.5-flash-image"

// GeminiService generates clip stills via the Google Gen AI SDK. Selectable
// as an alternative to the OpenAI image provider.
type GeminiService struct {
	apiKey string
	model  string
}

var _ ImageService = (*GeminiService)(nil)

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{
		apiKey: apiKey,
		model:  geminiImageModel,
	}
}

// GenerateImage generates a single image. Each call is independent — safe
// for parallel execution across clips.
func (s *GeminiService) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	fullPrompt := fmt.Sprintf("%s\n\nCompose the image for a %s aspect ratio frame.", prompt, aspectRatio)

	log.Printf("[Gemini] Generating image (model=%s, aspect=%s)", s.model, aspectRatio)

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(fullPrompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				log.Printf("[Gemini] Image generated (%d bytes)", len(part.InlineData.Data))
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("gemini returned no image data")
}
