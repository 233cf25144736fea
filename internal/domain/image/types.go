package image

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// CapturedImage is one screenshot payload as submitted by the desktop
// client: base64 raster data plus a format tag. It is consumed by exactly
// one pipeline call and never cached.
type CapturedImage struct {
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"`
}

// ValidationResult captures the outcome of security validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}

// ParseDataURI splits a "data:image/png;base64,...." capture payload into
// a CapturedImage. Plain base64 without the scheme prefix is accepted too.
func ParseDataURI(uri string) (CapturedImage, error) {
	if !strings.HasPrefix(uri, "data:") {
		return CapturedImage{Data: uri}, nil
	}

	meta, data, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return CapturedImage{}, fmt.Errorf("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return CapturedImage{}, fmt.Errorf("unsupported data URI encoding: %s", meta)
	}

	format := ""
	if mediaType := strings.TrimSuffix(meta, ";base64"); strings.HasPrefix(mediaType, "image/") {
		format = strings.TrimPrefix(mediaType, "image/")
	}

	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return CapturedImage{}, fmt.Errorf("decode data URI payload: %w", err)
	}

	return CapturedImage{Data: data, Format: format}, nil
}

// Bytes decodes the raster payload.
func (c CapturedImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.Data)
}
