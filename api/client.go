package api

import (
	"QwenBot/core"
	"QwenBot/lib/sl"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the remote conversation API
type Client struct {
	baseURL    string
	noResponse string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(conf *core.Config, log *slog.Logger) *Client {
	timeout := conf.Api.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(conf.Api.BaseURL, "/"),
		noResponse: conf.NoResponseText,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With(sl.Module("api")),
	}
}

func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	const op = "create conversation"

	status, body, err := c.do(ctx, op, http.MethodPost, "/api/chats", &CreateChatRequest{})
	if err != nil {
		return "", err
	}
	if err = checkStatus(op, status); err != nil {
		return "", err
	}

	var created CreateChatResponse
	if err = json.Unmarshal(body, &created); err != nil {
		return "", core.NewError(core.MalformedResponse, op, err)
	}
	if created.ChatId == "" {
		return "", core.NewError(core.MalformedResponse, op, fmt.Errorf("no chatId in response"))
	}
	c.log.With(slog.String("chat", created.ChatId)).Info("conversation created")
	return created.ChatId, nil
}

// FetchHistory returns the conversation messages; tail > 0 keeps only the
// last tail messages, tail <= 0 keeps them all.
func (c *Client) FetchHistory(ctx context.Context, conversationId string, tail int) ([]core.ConversationMessage, error) {
	const op = "fetch history"
	if conversationId == "" {
		return nil, core.NewError(core.NoActiveConversation, op, nil)
	}

	status, body, err := c.do(ctx, op, http.MethodGet, "/api/chats/"+url.PathEscape(conversationId), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err = checkStatus(op, status); err != nil {
		return nil, err
	}

	messages, err := decodeHistory(body)
	if err != nil {
		return nil, core.NewError(core.MalformedResponse, op, err)
	}
	if tail > 0 && len(messages) > tail {
		messages = messages[len(messages)-tail:]
	}
	return messages, nil
}

// DeleteConversation reports false without an error when the remote refuses
func (c *Client) DeleteConversation(ctx context.Context, conversationId string) (bool, error) {
	const op = "delete conversation"
	if conversationId == "" {
		return false, core.NewError(core.NoActiveConversation, op, nil)
	}

	status, body, err := c.do(ctx, op, http.MethodDelete, "/api/chats/"+url.PathEscape(conversationId), nil)
	if err != nil {
		return false, err
	}
	if status < 200 || status > 299 {
		c.log.With(
			slog.String("chat", conversationId),
			slog.Int("status", status),
		).Warn("conversation not deleted")
		return false, nil
	}

	var deleted DeleteChatResponse
	if err = json.Unmarshal(body, &deleted); err == nil && deleted.Success != nil && !*deleted.Success {
		return false, nil
	}
	return true, nil
}

func (c *Client) SendMessage(ctx context.Context, text, model, conversationId string) (*core.Reply, error) {
	const op = "send message"

	request := NewChatRequest(text, model, conversationId)
	status, body, err := c.do(ctx, op, http.MethodPost, "/api/chat", request)
	if err != nil {
		return nil, err
	}
	if status >= 500 {
		return nil, core.NewError(core.RemoteUnavailable, op, fmt.Errorf("status %d: %s", status, trimBody(body)))
	}

	var response ChatResponse
	if err = json.Unmarshal(body, &response); err != nil {
		return nil, core.NewError(core.MalformedResponse, op, err)
	}
	if remote := response.RemoteError(); remote != "" {
		c.log.With(
			slog.String("chat", response.ChatId),
			slog.String("remote", remote),
		).Warn("api reported error")
	}

	reply := &core.Reply{
		Text:           c.noResponse,
		ConversationId: response.ChatId,
	}
	if content, ok := response.ReplyText(); ok {
		reply.Text = content
	}
	if reply.ConversationId == "" {
		reply.ConversationId = conversationId
	}
	c.log.With(
		slog.String("chat", reply.ConversationId),
		slog.String("model", model),
		slog.Int("choices", len(response.Choices)),
	).Info("chat completion")
	return reply, nil
}

// Status asks whether the API is authenticated against its backend
func (c *Client) Status(ctx context.Context) (*Status, error) {
	const op = "status"

	status, body, err := c.do(ctx, op, http.MethodGet, "/api/status", nil)
	if err != nil {
		return nil, err
	}
	if err = checkStatus(op, status); err != nil {
		return nil, err
	}
	var s Status
	if err = json.Unmarshal(body, &s); err != nil {
		return nil, core.NewError(core.MalformedResponse, op, err)
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	var requestBody io.Reader
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshalling request: %w", err)
		}
		requestBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, requestBody)
	if err != nil {
		return 0, nil, core.NewError(core.RemoteUnavailable, op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, core.NewError(core.RemoteUnavailable, op, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Error("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, core.NewError(core.RemoteUnavailable, op, fmt.Errorf("reading response body: %w", err))
	}
	c.log.With(
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int("size", len(body)),
	).Debug("api response")
	return resp.StatusCode, body, nil
}

func checkStatus(op string, status int) error {
	switch {
	case status >= 500:
		return core.NewError(core.RemoteUnavailable, op, fmt.Errorf("status %d", status))
	case status < 200 || status > 299:
		return core.NewError(core.MalformedResponse, op, fmt.Errorf("status %d", status))
	}
	return nil
}

func decodeHistory(body []byte) ([]core.ConversationMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var messages []core.ConversationMessage
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return nil, fmt.Errorf("decoding history: %w", err)
		}
		return messages, nil
	}
	var envelope HistoryResponse
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return envelope.History.Messages, nil
}

func trimBody(body []byte) string {
	if len(body) > 200 {
		return string(body[:200]) + "..."
	}
	return string(body)
}
