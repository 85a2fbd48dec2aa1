package ocr

import (
	"QwenBot/core"
	"QwenBot/lib/sl"
	"context"
	"iter"
	"log/slog"
	"strings"
)

// Engine recognizes the whole text of an image file
type Engine interface {
	Recognize(ctx context.Context, path string, languages []string) (string, error)
}

// Adapter turns raw engine output into recognized lines. It never creates or
// removes the image file it is given.
type Adapter struct {
	engine    Engine
	languages []string
	log       *slog.Logger
}

func NewAdapter(engine Engine, languages []string, log *slog.Logger) *Adapter {
	return &Adapter{
		engine:    engine,
		languages: languages,
		log:       log.With(sl.Module("ocr")),
	}
}

func (a *Adapter) Extract(ctx context.Context, path string) (iter.Seq[string], error) {
	const op = "extract text"
	if err := ctx.Err(); err != nil {
		return nil, core.NewError(core.RecognitionError, op, err)
	}
	text, err := a.engine.Recognize(ctx, path, a.languages)
	if err != nil {
		return nil, core.NewError(core.RecognitionError, op, err)
	}
	a.log.With(
		slog.String("path", path),
		slog.Int("size", len(text)),
	).Debug("text recognized")
	return Lines(text), nil
}

// Lines yields the trimmed non-blank lines of text
func Lines(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(text) {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}
