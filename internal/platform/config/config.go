package config

import "time"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Vision   VisionConfig   `yaml:"vision"`
	OCR      OCRConfig      `yaml:"ocr"`
	Chat     ChatConfig     `yaml:"chat"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// VisionConfig drives the remote multimodal describer. An empty APIKey
// disables the remote stage and the pipeline goes straight to OCR.
type VisionConfig struct {
	ModelName   string        `yaml:"model_name"`
	BaseURL     string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type OCRConfig struct {
	Languages []string `yaml:"languages"`
}

// ChatConfig drives the streaming chat completion endpoint. An empty APIKey
// switches the orchestrator into demo mode.
type ChatConfig struct {
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// SecurityConfig bounds screenshot payloads accepted from clients.
type SecurityConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats"`
}
