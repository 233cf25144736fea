package testing

import (
	"testing"
	"time"

	"flickai-server-go/internal/platform/config"
	"flickai-server-go/internal/platform/logging"
)

func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Server: config.ServerConfig{
			IP:   "127.0.0.1",
			Port: 8080,
		},
		Log: config.LogConfig{
			Level: "DEBUG",
		},
		Vision: config.VisionConfig{
			ModelName: "test-vision-model",
			Timeout:   2 * time.Second,
			MaxTokens: 500,
		},
		Chat: config.ChatConfig{
			ModelName:   "test-chat-model",
			Temperature: 1.0,
			TopP:        0.95,
			MaxTokens:   2048,
		},
		Security: config.SecurityConfig{
			MaxFileSize: 5 * 1024 * 1024,
			MaxPixels:   50 * 1000 * 1000,
			MaxWidth:    8192,
			MaxHeight:   8192,
		},
	}
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	logger, err := logging.New(logging.Config{Level: "DEBUG"})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
