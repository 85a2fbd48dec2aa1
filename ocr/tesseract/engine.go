// Package tesseract recognizes text with the Tesseract library
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func Version() string {
	return gosseract.Version()
}

// Recognize runs Tesseract on the image; the cgo call cannot be interrupted,
// so ctx is only checked before it starts.
func (e *Engine) Recognize(ctx context.Context, path string, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	if err := client.SetLanguage(languages...); err != nil {
		return "", fmt.Errorf("setting languages: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}
