package image

import (
	"bytes"
	"context"
	"encoding/base64"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"

	platformtesting "flickai-server-go/internal/platform/testing"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := platformtesting.SetupTestConfig(t)
	pipeline, err := NewPipeline(Options{
		Security: &cfg.Security,
		Logger:   platformtesting.SetupTestLogger(t),
	})
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}
	return pipeline
}

func TestPipeline_ProcessValidPNG(t *testing.T) {
	pipeline := testPipeline(t)
	raw := testPNG(t, 4, 4)

	out, err := pipeline.Process(context.Background(), Input{
		Reader:         bytes.NewReader(raw),
		DeclaredFormat: "png",
		Source:         "test",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if out.Format != "png" {
		t.Errorf("expected png format, got %s", out.Format)
	}
	if out.Validation.Width != 4 || out.Validation.Height != 4 {
		t.Errorf("unexpected dimensions: %dx%d", out.Validation.Width, out.Validation.Height)
	}
	decoded, err := base64.StdEncoding.DecodeString(out.Base64)
	if err != nil {
		t.Fatalf("output base64 not decodable: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Error("base64 output does not round-trip to input bytes")
	}
}

func TestPipeline_RejectsGarbage(t *testing.T) {
	pipeline := testPipeline(t)

	_, err := pipeline.Process(context.Background(), Input{
		Reader: bytes.NewReader([]byte("definitely not an image")),
	})
	if err == nil {
		t.Fatal("expected error for non-image payload")
	}
}

func TestPipeline_RejectsOversized(t *testing.T) {
	cfg := platformtesting.SetupTestConfig(t)
	cfg.Security.MaxFileSize = 64
	pipeline, err := NewPipeline(Options{
		Security: &cfg.Security,
		Logger:   platformtesting.SetupTestLogger(t),
	})
	if err != nil {
		t.Fatalf("create pipeline: %v", err)
	}

	_, err = pipeline.Process(context.Background(), Input{
		Reader: bytes.NewReader(testPNG(t, 64, 64)),
	})
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestParseDataURI(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4E, 0x47}
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name       string
		uri        string
		wantFormat string
		wantErr    bool
	}{
		{
			name:       "png data uri",
			uri:        "data:image/png;base64," + encoded,
			wantFormat: "png",
		},
		{
			name:       "plain base64 passthrough",
			uri:        encoded,
			wantFormat: "",
		},
		{
			name:    "missing comma",
			uri:     "data:image/png;base64",
			wantErr: true,
		},
		{
			name:    "non-base64 encoding",
			uri:     "data:image/png,rawbytes",
			wantErr: true,
		},
		{
			name:    "invalid payload",
			uri:     "data:image/png;base64,!!!!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured, err := ParseDataURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDataURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if captured.Format != tt.wantFormat {
				t.Errorf("format = %q, want %q", captured.Format, tt.wantFormat)
			}
		})
	}
}
