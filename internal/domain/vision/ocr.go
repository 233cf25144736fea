package vision

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer extracts raw text from a screenshot. Implementations must
// always terminate; the pipeline adds no timeout layer on top.
type Recognizer interface {
	Recognize(ctx context.Context, raw []byte) (string, error)
}

// TesseractRecognizer runs local OCR through the Tesseract engine. The
// engine is initialised and torn down per call; it is not kept warm.
type TesseractRecognizer struct {
	languages []string
}

func NewTesseractRecognizer(languages []string) *TesseractRecognizer {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractRecognizer{languages: languages}
}

// Recognize returns the trimmed extracted text, possibly empty.
func (r *TesseractRecognizer) Recognize(_ context.Context, raw []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(raw); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
