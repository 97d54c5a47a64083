package services

import "context"

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData []byte
	Format    string // "mp3", "wav", etc.
}

// TTSService is the interface any narration provider must implement.
// voiceName overrides the provider's default voice when non-empty; providers
// without named voices may ignore it.
type TTSService interface {
	GenerateSpeech(ctx context.Context, text, voiceName string) (*TTSResponse, error)
}

// ImageService is the interface any image generation provider must
// implement. aspectRatio uses "W:H" notation ("9:16", "16:9", "1:1").
type ImageService interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error)
}
