package bot

import (
	"QwenBot/core"
	"QwenBot/router"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBot() *TgBot {
	conf := &core.Config{Username: "qwen_bot"}
	conf.Api.Timeout = time.Second
	conf.RateLimit.PerMinute = 60
	conf.RateLimit.Burst = 2
	return newTgBot(conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func command(text string, length int) *tgbotapi.Message {
	m := message(text)
	m.Entities = &[]tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return m
}

func message(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: 100, Type: "private"},
		Text: text,
	}
}

func TestToUpdate_Command(t *testing.T) {
	b := testBot()

	u, ok := b.toUpdate(command("/model qwen2.5-vl-32b", 6))
	require.True(t, ok)
	assert.Equal(t, router.KindModel, u.Kind)
	assert.Equal(t, "qwen2.5-vl-32b", u.Args)
	assert.Equal(t, int64(42), u.UserId)
	assert.Equal(t, int64(100), u.ChatId)

	u, ok = b.toUpdate(command("/newchat@qwen_bot", 17))
	require.True(t, ok)
	assert.Equal(t, router.KindNewChat, u.Kind)

	u, ok = b.toUpdate(command("/dance", 6))
	require.True(t, ok)
	assert.Equal(t, router.KindUnknownCommand, u.Kind)
}

func TestToUpdate_Text(t *testing.T) {
	b := testBot()

	u, ok := b.toUpdate(message("@qwen_bot hello there"))
	require.True(t, ok)
	assert.Equal(t, router.KindText, u.Kind)
	assert.Equal(t, "hello there", u.Text)

	_, ok = b.toUpdate(message("   "))
	assert.False(t, ok)
}

func TestToUpdate_Photo(t *testing.T) {
	b := testBot()
	m := message("")
	m.Photo = &[]tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 60},
		{FileID: "large", Width: 1280, Height: 853},
		{FileID: "medium", Width: 320, Height: 213},
	}

	u, ok := b.toUpdate(m)
	require.True(t, ok)
	assert.Equal(t, router.KindPhoto, u.Kind)
	assert.Equal(t, "large", u.PhotoFileId)
}

func TestIsAddressed(t *testing.T) {
	b := testBot()

	assert.True(t, b.isAddressed(command("/help", 5)))
	assert.True(t, b.isAddressed(message("hey @qwen_bot")))
	assert.False(t, b.isAddressed(message("just chatting")))

	photo := message("")
	photo.Caption = "@qwen_bot read this"
	assert.True(t, b.isAddressed(photo))

	reply := message("and this?")
	reply.ReplyToMessage = &tgbotapi.Message{From: &tgbotapi.User{UserName: "qwen_bot"}}
	assert.True(t, b.isAddressed(reply))

	reply.ReplyToMessage = &tgbotapi.Message{}
	assert.False(t, b.isAddressed(reply))
}

func TestUserLimiter(t *testing.T) {
	l := newUserLimiter(1, 2)
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "limits are per user")

	unlimited := newUserLimiter(-1, 5)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow(1))
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file/photo.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, download(context.Background(), server.Client(), server.URL+"/file/photo.jpg", path))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))

	err = download(context.Background(), server.Client(), server.URL+"/missing", filepath.Join(t.TempDir(), "x.jpg"))
	assert.ErrorContains(t, err, "status 404")
}

type recordingHandler struct {
	mu      sync.Mutex
	handled []string
	delay   map[router.Kind]time.Duration
	block   chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, u router.Update) {
	if u.UserId == 42 && h.block != nil {
		<-h.block
	}
	time.Sleep(h.delay[u.Kind])
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, fmt.Sprintf("%d:%s", u.UserId, u.Kind))
}

func (h *recordingHandler) order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func TestDispatch_KeepsUserOrder(t *testing.T) {
	b := testBot()
	handler := &recordingHandler{delay: map[router.Kind]time.Duration{router.KindNewChat: 50 * time.Millisecond}}
	b.SetHandler(handler)

	b.dispatch(command("/newchat", 8))
	b.dispatch(command("/model qwen2.5-vl-32b", 6))
	b.wg.Wait()

	assert.Equal(t, []string{"42:newchat", "42:model"}, handler.order())
	assert.Empty(t, b.queues)
}

func TestDispatch_UsersRunConcurrently(t *testing.T) {
	b := testBot()
	handler := &recordingHandler{block: make(chan struct{})}
	b.SetHandler(handler)

	b.dispatch(command("/history", 8))
	other := command("/help", 5)
	other.From = &tgbotapi.User{ID: 7, UserName: "bob"}
	b.dispatch(other)

	require.Eventually(t, func() bool {
		return len(handler.order()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"7:help"}, handler.order())

	close(handler.block)
	b.wg.Wait()
	assert.Equal(t, []string{"7:help", "42:history"}, handler.order())
}

func TestIsForOtherBot(t *testing.T) {
	b := testBot()

	assert.False(t, b.isForOtherBot(command("/clear", 6)))
	assert.False(t, b.isForOtherBot(command("/clear@qwen_bot", 15)))
	assert.False(t, b.isForOtherBot(command("/clear@Qwen_Bot", 15)))
	assert.True(t, b.isForOtherBot(command("/clear@SomeOtherBot", 19)))
	assert.False(t, b.isForOtherBot(message("mail me at a@b.c")))
}

func TestDispatch_IgnoresOtherBotCommands(t *testing.T) {
	b := testBot()
	handler := &recordingHandler{}
	b.SetHandler(handler)

	b.dispatch(command("/clear@SomeOtherBot", 19))
	b.wg.Wait()

	assert.Empty(t, handler.order())
}
