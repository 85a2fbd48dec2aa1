package api

import (
	"QwenBot/core"
	"encoding/json"
)

type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	ChatId  string `json:"chatId,omitempty"`
}

type ChatResponse struct {
	ChatId  string          `json:"chatId"`
	Choices []Choice        `json:"choices"`
	Error   json.RawMessage `json:"error,omitempty"`
}

type Choice struct {
	Message *core.ConversationMessage `json:"message"`
}

type CreateChatRequest struct {
	Name string `json:"name,omitempty"`
}

type CreateChatResponse struct {
	ChatId string `json:"chatId"`
}

type DeleteChatResponse struct {
	Success *bool `json:"success"`
}

// HistoryResponse is the envelope returned by GET /api/chats/{id};
// older servers return the bare message array instead.
type HistoryResponse struct {
	ChatId  string `json:"chatId"`
	History struct {
		Messages []core.ConversationMessage `json:"messages"`
	} `json:"history"`
}

type Status struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
}

func NewChatRequest(message, model, chatId string) *ChatRequest {
	return &ChatRequest{
		Message: message,
		Model:   model,
		ChatId:  chatId,
	}
}

// ReplyText returns the first completion's content
func (r *ChatResponse) ReplyText() (string, bool) {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil || r.Choices[0].Message.Content == "" {
		return "", false
	}
	return r.Choices[0].Message.Content, true
}

// RemoteError renders the error field whatever its JSON type
func (r *ChatResponse) RemoteError() string {
	if len(r.Error) == 0 || string(r.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil {
		return s
	}
	return string(r.Error)
}
