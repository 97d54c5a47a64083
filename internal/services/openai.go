package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIService provides image generation (DALL-E) and fallback narration
// speech when no ElevenLabs key is configured.
type OpenAIService struct {
	client *openai.Client
}

var (
	_ ImageService = (*OpenAIService)(nil)
	_ TTSService   = (*OpenAIService)(nil)
)

func NewOpenAIService(apiKey string) *OpenAIService {
	return &OpenAIService{
		client: openai.NewClient(apiKey),
	}
}

// GenerateImage generates a single still for a clip. aspectRatio picks the
// closest size DALL-E 3 supports.
func (s *OpenAIService) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	size := openai.CreateImageSize1024x1792 // portrait default
	switch aspectRatio {
	case "16:9":
		size = openai.CreateImageSize1792x1024
	case "1:1":
		size = openai.CreateImageSize1024x1024
	}

	log.Printf("[OpenAI] Generating image (aspect=%s, promptLen=%d)", aspectRatio, len(prompt))

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image request failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no image data")
	}

	imageData, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	log.Printf("[OpenAI] Image generated (%d bytes)", len(imageData))
	return imageData, nil
}

// GenerateSpeech converts text to speech with the OpenAI TTS model.
// voiceName maps onto the model's named voices; unknown names fall back to
// alloy.
func (s *OpenAIService) GenerateSpeech(ctx context.Context, text, voiceName string) (*TTSResponse, error) {
	voice := openai.VoiceAlloy
	switch voiceName {
	case "echo":
		voice = openai.VoiceEcho
	case "fable":
		voice = openai.VoiceFable
	case "onyx":
		voice = openai.VoiceOnyx
	case "nova":
		voice = openai.VoiceNova
	case "shimmer":
		voice = openai.VoiceShimmer
	}

	log.Printf("[OpenAI] Generating speech (voice=%s, textLen=%d)", voice, len(text))

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: voice,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read openai audio response: %w", err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("openai returned empty audio")
	}

	return &TTSResponse{
		AudioData: audioData,
		Format:    "mp3",
	}, nil
}
