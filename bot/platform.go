package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

func (t *TgBot) SendText(chatId int64, text string) error {
	if _, err := t.api.Send(tgbotapi.NewMessage(chatId, text)); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// SendDocument uploads the file at path under the given file name
func (t *TgBot) SendDocument(chatId int64, name, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening document: %w", err)
	}
	defer file.Close()

	doc := tgbotapi.NewDocumentUpload(chatId, tgbotapi.FileReader{
		Name:   name,
		Reader: file,
		Size:   -1,
	})
	if _, err = t.api.Send(doc); err != nil {
		return fmt.Errorf("sending document: %w", err)
	}
	return nil
}

// DownloadFile saves a Telegram file to path
func (t *TgBot) DownloadFile(ctx context.Context, fileId, path string) error {
	fileURL, err := t.api.GetFileDirectURL(fileId)
	if err != nil {
		return fmt.Errorf("getting file url: %w", err)
	}
	return download(ctx, t.httpClient, fileURL, path)
}

func download(ctx context.Context, client *http.Client, fileURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if _, err = io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing file: %w", err)
	}
	return out.Close()
}
