package router

import (
	"QwenBot/core"
	"QwenBot/holder"
	"QwenBot/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

func (r *Router) start(log *slog.Logger, u Update) string {
	defaultModel := r.sessions.DefaultModel()
	err := r.sessions.Update(u.UserId, func(s *holder.Session) error {
		s.Model = defaultModel
		return nil
	})
	if err != nil {
		log.Error("resetting model", sl.Err(err))
		return fmt.Sprintf(msgInternalError, "start")
	}
	return fmt.Sprintf(msgStart, defaultModel)
}

func (r *Router) selectModel(log *slog.Logger, u Update) string {
	args := strings.Fields(u.Args)
	if len(args) == 0 {
		return msgModelUsage
	}
	name := args[0]
	if _, ok := r.catalog.Lookup(name); !ok {
		err := core.NewError(core.InvalidModelSelection, "select model", fmt.Errorf("unknown model %q", name))
		log.Info("model rejected", sl.Err(err))
		return fmt.Sprintf(msgModelNotFound, name, strings.Join(r.catalog.Names(), ", "))
	}

	err := r.sessions.Update(u.UserId, func(s *holder.Session) error {
		s.Model = name
		return nil
	})
	if err != nil {
		log.Error("selecting model", sl.Err(err))
		return fmt.Sprintf(msgInternalError, "change the model")
	}
	log.Info("model selected", slog.String("model", name))
	return fmt.Sprintf(msgModelChanged, name)
}

func (r *Router) newChat(ctx context.Context, log *slog.Logger, u Update) string {
	const action = "create a conversation"

	id, err := r.conversations.CreateConversation(ctx)
	if err != nil {
		log.Error("creating conversation", sl.Err(err))
		return describe(action, err)
	}

	defaultModel := r.sessions.DefaultModel()
	err = r.sessions.Update(u.UserId, func(s *holder.Session) error {
		s.ConversationId = id
		s.Model = defaultModel
		return nil
	})
	if err != nil {
		log.Error("saving conversation", sl.Err(err))
		return fmt.Sprintf(msgInternalError, action)
	}
	return fmt.Sprintf(msgNewChat, id, defaultModel)
}

func (r *Router) history(ctx context.Context, log *slog.Logger, u Update) string {
	const action = "load the history"

	s, err := r.sessions.Get(u.UserId)
	if err != nil {
		log.Error("getting session", sl.Err(err))
		return fmt.Sprintf(msgInternalError, action)
	}
	if !s.HasConversation() {
		return msgNoConversation
	}

	messages, err := r.conversations.FetchHistory(ctx, s.ConversationId, r.historyTail)
	if err != nil {
		log.Error("fetching history", slog.String("chat", s.ConversationId), sl.Err(err))
		return describe(action, err)
	}
	if len(messages) == 0 {
		return msgHistoryEmpty
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return fmt.Sprintf(msgHistory, strings.Join(lines, "\n"))
}

func (r *Router) clear(ctx context.Context, log *slog.Logger, u Update) string {
	const action = "delete the conversation"

	s, err := r.sessions.Get(u.UserId)
	if err != nil {
		log.Error("getting session", sl.Err(err))
		return fmt.Sprintf(msgInternalError, action)
	}
	if !s.HasConversation() {
		return msgNoConversation
	}

	ok, err := r.conversations.DeleteConversation(ctx, s.ConversationId)
	if err != nil {
		log.Error("deleting conversation", slog.String("chat", s.ConversationId), sl.Err(err))
		return describe(action, err)
	}
	if !ok {
		return msgDeleteFailed
	}
	if err = r.sessions.Clear(u.UserId); err != nil {
		log.Error("clearing session", sl.Err(err))
		return fmt.Sprintf(msgInternalError, action)
	}
	log.Info("conversation deleted", slog.String("chat", s.ConversationId))
	return msgDeleted
}

func (r *Router) chat(ctx context.Context, log *slog.Logger, u Update) string {
	const action = "get an answer"

	s, err := r.sessions.Get(u.UserId)
	if err != nil {
		log.Error("getting session", sl.Err(err))
		return fmt.Sprintf(msgInternalError, action)
	}
	log.With(
		slog.String("model", s.Model),
		slog.String("chat", s.ConversationId),
		sl.Trim(u.Text, 50),
	).Info("incoming message")

	answer, err := r.conversations.SendMessage(ctx, u.Text, s.Model, s.ConversationId)
	if err != nil {
		log.Error("sending message", sl.Err(err))
		return describe(action, err)
	}

	if !s.HasConversation() && answer.ConversationId != "" {
		err = r.sessions.Update(u.UserId, func(s *holder.Session) error {
			if s.ConversationId == "" {
				s.ConversationId = answer.ConversationId
			}
			return nil
		})
		if err != nil {
			log.Error("adopting conversation", sl.Err(err))
		}
	}
	return answer.Text
}

func (r *Router) photo(ctx context.Context, log *slog.Logger, u Update) string {
	path := filepath.Join(r.tempDir, fmt.Sprintf("%d_%s_photo.jpg", u.UserId, uuid.NewString()))
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("removing photo", slog.String("path", path), sl.Err(err))
		}
	}()

	if err := r.platform.DownloadFile(ctx, u.PhotoFileId, path); err != nil {
		log.Error("downloading photo", sl.Err(err))
		return msgDownloadFailed
	}

	lines, err := r.extractor.Extract(ctx, path)
	if err != nil {
		log.Error("extracting text", sl.Err(err))
		return describe("recognize the text", err)
	}
	recognized := slices.Collect(lines)
	if len(recognized) == 0 {
		return msgNoText
	}
	log.Info("text recognized", slog.Int("lines", len(recognized)))
	return fmt.Sprintf(msgRecognized, strings.Join(recognized, "\n"))
}
