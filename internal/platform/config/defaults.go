package config

import "time"

// Endpoint and model defaults match the FlickAI desktop client.
const (
	DefaultVisionBaseURL = "https://openrouter.ai/api/v1"
	DefaultVisionModel   = "meta-llama/llama-3.2-11b-vision-instruct:free"
	DefaultChatBaseURL   = "https://api.cerebras.ai/v1"
	DefaultChatModel     = "zai-glm-4.7"
)

// applyDefaults fills zero values after decoding.
func applyDefaults(cfg *Config) {
	if cfg.Server.IP == "" {
		cfg.Server.IP = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}

	if cfg.Vision.BaseURL == "" {
		cfg.Vision.BaseURL = DefaultVisionBaseURL
	}
	if cfg.Vision.ModelName == "" {
		cfg.Vision.ModelName = DefaultVisionModel
	}
	if cfg.Vision.Temperature == 0 {
		cfg.Vision.Temperature = 0.3
	}
	if cfg.Vision.MaxTokens == 0 {
		cfg.Vision.MaxTokens = 500
	}
	if cfg.Vision.Timeout == 0 {
		cfg.Vision.Timeout = 15 * time.Second
	}

	if len(cfg.OCR.Languages) == 0 {
		cfg.OCR.Languages = []string{"eng"}
	}

	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = DefaultChatBaseURL
	}
	if cfg.Chat.ModelName == "" {
		cfg.Chat.ModelName = DefaultChatModel
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 1.0
	}
	if cfg.Chat.TopP == 0 {
		cfg.Chat.TopP = 0.95
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 2048
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/flickai.db"
	}

	if cfg.Security.MaxFileSize == 0 {
		cfg.Security.MaxFileSize = 5 * 1024 * 1024
	}
	if cfg.Security.MaxPixels == 0 {
		cfg.Security.MaxPixels = 50 * 1000 * 1000
	}
	if cfg.Security.MaxWidth == 0 {
		cfg.Security.MaxWidth = 8192
	}
	if cfg.Security.MaxHeight == 0 {
		cfg.Security.MaxHeight = 8192
	}
	if len(cfg.Security.AllowedFormats) == 0 {
		cfg.Security.AllowedFormats = []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"}
	}
}
