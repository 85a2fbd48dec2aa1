package reply

import (
	"QwenBot/core"
	"QwenBot/lib/sl"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"
)

// Sender delivers replies to a chat
type Sender interface {
	SendText(chatId int64, text string) error
	SendDocument(chatId int64, name, path string) error
}

// Formatter sends short replies inline and long ones as a text file
type Formatter struct {
	limit    int
	fileName string
	tempDir  string
	log      *slog.Logger
}

func NewFormatter(conf *core.Config, log *slog.Logger) *Formatter {
	return &Formatter{
		limit:    conf.Reply.InlineLimit,
		fileName: conf.Reply.FileName,
		tempDir:  conf.Reply.TempDir,
		log:      log.With(sl.Module("reply")),
	}
}

func (f *Formatter) Inline(text string) bool {
	return utf8.RuneCountInString(text) <= f.limit
}

// Send delivers text to chatId on behalf of userId. The temporary file of a
// long reply is removed whether or not the upload succeeds.
func (f *Formatter) Send(sender Sender, chatId, userId int64, text string) error {
	if f.Inline(text) {
		return sender.SendText(chatId, text)
	}

	file, err := os.CreateTemp(f.tempDir, fmt.Sprintf("%d-*-%s", userId, f.fileName))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	path := file.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			f.log.With(slog.String("path", path)).Error("removing temp file", sl.Err(err))
		}
	}()

	_, err = file.WriteString(text)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	f.log.With(
		sl.User(userId),
		slog.Int("length", utf8.RuneCountInString(text)),
	).Debug("sending reply as file")
	if err = sender.SendDocument(chatId, f.fileName, path); err != nil {
		return fmt.Errorf("sending document: %w", err)
	}
	return nil
}
