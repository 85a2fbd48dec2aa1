package bot

import (
	"QwenBot/core"
	"QwenBot/lib/sl"
	"QwenBot/router"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const slowDownResponse = "Too many requests, please slow down a little."

// Handler processes one routed update
type Handler interface {
	Handle(ctx context.Context, u router.Update)
}

type TgBot struct {
	conf        *core.Config
	log         *slog.Logger
	api         *tgbotapi.BotAPI
	handler     Handler
	botUsername string
	httpClient  *http.Client
	limiter     *userLimiter
	queueMu     sync.Mutex
	queues      map[int64][]router.Update // present while the user's worker runs
	wg          sync.WaitGroup
	stop        chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
}

func NewTgBot(conf *core.Config, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBotAPI(conf.TelegramApiKey)
	if err != nil {
		return nil, fmt.Errorf("creating bot api: %w", err)
	}

	tgBot := newTgBot(conf, log)
	tgBot.api = api
	if tgBot.botUsername == "" {
		tgBot.botUsername = api.Self.UserName
	}
	tgBot.log.With(slog.String("username", tgBot.botUsername)).Info("authorized on telegram")
	return tgBot, nil
}

func newTgBot(conf *core.Config, log *slog.Logger) *TgBot {
	return &TgBot{
		conf:        conf,
		log:         log.With(sl.Module("tgbot")),
		botUsername: conf.Username,
		httpClient: &http.Client{
			Timeout: conf.Api.Timeout,
		},
		limiter: newUserLimiter(conf.RateLimit.PerMinute, conf.RateLimit.Burst),
		queues:  make(map[int64][]router.Update),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// SetHandler sets the update handler
func (t *TgBot) SetHandler(handler Handler) {
	t.handler = handler
}

// Start polls Telegram until Stop is called
func (t *TgBot) Start() error {
	defer close(t.stopped)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("getting updates channel: %w", err)
	}

	for {
		select {
		case <-t.stop:
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.dispatch(update.Message)
		}
	}
}

// Stop ends polling and waits for in-flight updates to be answered
func (t *TgBot) Stop() {
	t.stopOnce.Do(func() {
		t.api.StopReceivingUpdates()
		close(t.stop)
	})
	<-t.stopped
	t.wg.Wait()
}

func (t *TgBot) dispatch(incoming *tgbotapi.Message) {
	if incoming == nil || incoming.From == nil || incoming.Chat == nil {
		return
	}
	if !incoming.Chat.IsPrivate() && !t.isAddressed(incoming) {
		return
	}
	if t.isForOtherBot(incoming) {
		return
	}
	update, ok := t.toUpdate(incoming)
	if !ok {
		return
	}

	log := t.log.With(
		sl.User(update.UserId),
		slog.String("from", incoming.From.UserName),
		slog.String("kind", update.Kind.String()),
	)
	if !t.limiter.Allow(update.UserId) {
		log.Warn("rate limited")
		if err := t.SendText(update.ChatId, slowDownResponse); err != nil {
			log.Error("sending message", sl.Err(err))
		}
		return
	}
	log.Debug("incoming update")

	t.enqueue(update)
}

// enqueue hands the update to the user's worker, starting one if needed.
// Updates of one user are handled in delivery order, different users run
// concurrently.
func (t *TgBot) enqueue(update router.Update) {
	t.queueMu.Lock()
	queue, running := t.queues[update.UserId]
	t.queues[update.UserId] = append(queue, update)
	t.queueMu.Unlock()
	if running {
		return
	}

	t.wg.Add(1)
	go t.drain(update.UserId)
}

func (t *TgBot) drain(userId int64) {
	defer t.wg.Done()
	for {
		t.queueMu.Lock()
		queue := t.queues[userId]
		if len(queue) == 0 {
			delete(t.queues, userId)
			t.queueMu.Unlock()
			return
		}
		update := queue[0]
		t.queues[userId] = queue[1:]
		t.queueMu.Unlock()

		t.process(update)
	}
}

func (t *TgBot) process(update router.Update) {
	if update.Kind == router.KindText || update.Kind == router.KindPhoto {
		stopTyping := t.keepTyping(update.ChatId)
		defer stopTyping()
	}
	t.handler.Handle(context.Background(), update)
}

// toUpdate reduces a Telegram message to a router update
func (t *TgBot) toUpdate(m *tgbotapi.Message) (router.Update, bool) {
	update := router.Update{
		UserId: int64(m.From.ID),
		ChatId: m.Chat.ID,
	}
	switch {
	case m.IsCommand():
		update.Kind = router.CommandKind(m.Command())
		update.Args = strings.TrimSpace(m.CommandArguments())
	case m.Photo != nil && len(*m.Photo) > 0:
		update.Kind = router.KindPhoto
		update.PhotoFileId = largestPhoto(*m.Photo).FileID
	case strings.TrimSpace(t.stripMention(m.Text)) != "":
		update.Kind = router.KindText
		update.Text = strings.TrimSpace(t.stripMention(m.Text))
	default:
		return update, false
	}
	return update, true
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, p := range sizes[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

// keepTyping sends the typing action every 5 seconds until the returned func is called
func (t *TgBot) keepTyping(chatId int64) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			t.sendChatAction(chatId, tgbotapi.ChatTyping)
			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func (t *TgBot) sendChatAction(chatId int64, action string) {
	if _, err := t.api.Send(tgbotapi.NewChatAction(chatId, action)); err != nil {
		t.log.With(slog.Int64("chat", chatId)).Debug("sending chat action", sl.Err(err))
	}
}

// isAddressed reports whether a group message is meant for the bot
func (t *TgBot) isAddressed(m *tgbotapi.Message) bool {
	return m.IsCommand() || t.isMentioned(m.Text) || t.isMentioned(m.Caption) || t.isReplyToBot(m)
}

// isForOtherBot reports a command addressed as /command@another_bot
func (t *TgBot) isForOtherBot(m *tgbotapi.Message) bool {
	if !m.IsCommand() {
		return false
	}
	fields := strings.Fields(m.Text)
	if len(fields) == 0 {
		return false
	}
	i := strings.Index(fields[0], "@")
	if i < 0 {
		return false
	}
	return !strings.EqualFold(fields[0][i+1:], t.botUsername)
}

func (t *TgBot) isMentioned(text string) bool {
	if t.botUsername != "" {
		return strings.Contains(text, "@"+t.botUsername)
	}
	return false
}

func (t *TgBot) isReplyToBot(message *tgbotapi.Message) bool {
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil && t.botUsername != "" {
		return message.ReplyToMessage.From.UserName == t.botUsername
	}
	return false
}

func (t *TgBot) stripMention(text string) string {
	if t.botUsername == "" {
		return text
	}
	return strings.ReplaceAll(text, "@"+t.botUsername, "")
}
