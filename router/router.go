package router

import (
	"QwenBot/core"
	"QwenBot/holder"
	"QwenBot/lib/sl"
	"QwenBot/reply"
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Platform is the messaging platform the router replies through
type Platform interface {
	reply.Sender
	DownloadFile(ctx context.Context, fileId, path string) error
}

type Router struct {
	log           *slog.Logger
	sessions      *holder.SessionManager
	conversations core.ConversationService
	extractor     core.TextExtractor
	formatter     *reply.Formatter
	catalog       *core.Catalog
	platform      Platform
	historyTail   int
	tempDir       string
}

func New(
	conf *core.Config,
	log *slog.Logger,
	sessions *holder.SessionManager,
	conversations core.ConversationService,
	extractor core.TextExtractor,
	platform Platform,
) *Router {
	tempDir := conf.Reply.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Router{
		log:           log.With(sl.Module("router")),
		sessions:      sessions,
		conversations: conversations,
		extractor:     extractor,
		formatter:     reply.NewFormatter(conf, log),
		catalog:       core.NewCatalog(conf.Models),
		platform:      platform,
		historyTail:   conf.HistoryTail,
		tempDir:       tempDir,
	}
}

// Handle routes one update and sends exactly one reply. It never panics.
func (r *Router) Handle(ctx context.Context, u Update) {
	log := r.log.With(sl.User(u.UserId), slog.String("kind", u.Kind.String()))
	replied := false
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handler panic", slog.Any("panic", rec))
			if !replied {
				r.deliver(log, u, fmt.Sprintf(msgInternalError, "process the request"))
			}
		}
	}()

	var text string
	switch u.Kind {
	case KindStart:
		text = r.start(log, u)
	case KindHelp:
		text = msgHelp
	case KindModels:
		text = fmt.Sprintf(msgModels, r.catalog.Describe())
	case KindModel:
		text = r.selectModel(log, u)
	case KindNewChat:
		text = r.newChat(ctx, log, u)
	case KindHistory:
		text = r.history(ctx, log, u)
	case KindClear:
		text = r.clear(ctx, log, u)
	case KindText:
		text = r.chat(ctx, log, u)
	case KindPhoto:
		text = r.photo(ctx, log, u)
	case KindUnknownCommand:
		text = msgUnknownCommand
	default:
		log.Warn("unhandled update kind")
		text = msgUnknownCommand
	}
	// at most one reply per update, even if sending panics
	replied = true
	r.deliver(log, u, text)
}

func (r *Router) deliver(log *slog.Logger, u Update, text string) {
	if err := r.formatter.Send(r.platform, u.ChatId, u.UserId, text); err != nil {
		log.Error("sending reply", sl.Err(err))
	}
}

// describe converts a collaborator failure into the reply shown to the user
func describe(action string, err error) string {
	switch core.KindOf(err) {
	case core.RemoteUnavailable:
		return fmt.Sprintf(msgRemoteDown, action)
	case core.MalformedResponse:
		return fmt.Sprintf(msgRemoteMalformed, action)
	case core.NoActiveConversation:
		return msgNoConversation
	case core.RecognitionError:
		return msgRecognitionError
	case core.InvalidModelSelection, core.KindUnknown:
		return fmt.Sprintf(msgInternalError, action)
	}
	return fmt.Sprintf(msgInternalError, action)
}
