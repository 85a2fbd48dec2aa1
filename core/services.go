package core

import (
	"context"
	"iter"
)

type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Reply struct {
	Text           string
	ConversationId string
}

// ConversationService is the remote conversation API as seen by the router
type ConversationService interface {
	CreateConversation(ctx context.Context) (string, error)
	FetchHistory(ctx context.Context, conversationId string, tail int) ([]ConversationMessage, error)
	DeleteConversation(ctx context.Context, conversationId string) (bool, error)
	SendMessage(ctx context.Context, text, model, conversationId string) (*Reply, error)
}

// TextExtractor recognizes text lines on a local image file
type TextExtractor interface {
	Extract(ctx context.Context, path string) (iter.Seq[string], error)
}
