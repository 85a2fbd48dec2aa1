package api

import (
	"QwenBot/core"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return clientFor(server.URL, time.Second)
}

func clientFor(baseURL string, timeout time.Duration) *Client {
	conf := &core.Config{NoResponseText: "No response."}
	conf.Api.BaseURL = baseURL + "/"
	conf.Api.Timeout = timeout
	return NewClient(conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateConversation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chats", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"chatId": "abc"})
	})

	id, err := client.CreateConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestCreateConversation_NoId(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := client.CreateConversation(context.Background())
	require.Error(t, err)
	assert.Equal(t, core.MalformedResponse, core.KindOf(err))
}

func TestCreateConversation_ServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal"})
	})

	_, err := client.CreateConversation(context.Background())
	assert.Equal(t, core.RemoteUnavailable, core.KindOf(err))
}

func TestCreateConversation_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := clientFor(url, time.Second).CreateConversation(context.Background())
	assert.Equal(t, core.RemoteUnavailable, core.KindOf(err))
}

func TestSendMessage_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := clientFor(server.URL, 50*time.Millisecond).SendMessage(context.Background(), "hi", "m", "")
	assert.Equal(t, core.RemoteUnavailable, core.KindOf(err))
}

func TestFetchHistory_Array(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/chats/c1", r.URL.Path)
		var messages []map[string]string
		for i := 0; i < 7; i++ {
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			messages = append(messages, map[string]string{"role": role, "content": string(rune('a' + i))})
		}
		writeJSON(w, http.StatusOK, messages)
	})

	messages, err := client.FetchHistory(context.Background(), "c1", 5)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Equal(t, "c", messages[0].Content)
	assert.Equal(t, "g", messages[4].Content)
	assert.Equal(t, "user", messages[4].Role)

	all, err := client.FetchHistory(context.Background(), "c1", -1)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestFetchHistory_Envelope(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"chatId": "c1",
			"history": map[string]any{
				"id": "c1",
				"messages": []map[string]any{
					{"id": "1", "role": "user", "content": "hello", "timestamp": 1},
					{"id": "2", "role": "assistant", "content": "hi there", "timestamp": 2},
				},
			},
		})
	})

	messages, err := client.FetchHistory(context.Background(), "c1", 0)
	require.NoError(t, err)
	assert.Equal(t, []core.ConversationMessage{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}, messages)
}

func TestFetchHistory_NoConversation(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.FetchHistory(context.Background(), "", 5)
	assert.Equal(t, core.NoActiveConversation, core.KindOf(err))
	assert.Zero(t, calls.Load())
}

func TestFetchHistory_NotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	})

	messages, err := client.FetchHistory(context.Background(), "gone", 5)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDeleteConversation(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   bool
	}{
		{"success", http.StatusOK, map[string]any{"success": true}, true},
		{"no body field", http.StatusOK, map[string]any{}, true},
		{"reported failure", http.StatusOK, map[string]any{"success": false}, false},
		{"not found", http.StatusNotFound, map[string]any{"error": "not found"}, false},
		{"server error", http.StatusInternalServerError, map[string]any{"error": "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/api/chats/c1", r.URL.Path)
				writeJSON(w, tt.status, tt.body)
			})
			ok, err := client.DeleteConversation(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{
			"chatId":  "new-chat",
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "Hello!"}}},
		})
	})

	reply, err := client.SendMessage(context.Background(), "hello", "qwen2.5-omni-7b", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply.Text)
	assert.Equal(t, "new-chat", reply.ConversationId)
	assert.Equal(t, map[string]any{"message": "hello", "model": "qwen2.5-omni-7b"}, got)
}

func TestSendMessage_WithConversation(t *testing.T) {
	var got map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	})

	reply, err := client.SendMessage(context.Background(), "hi", "m", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got["chatId"])
	assert.Equal(t, "c1", reply.ConversationId)
}

func TestSendMessage_Placeholder(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"chatId": "c1", "error": "auth required"})
	})

	reply, err := client.SendMessage(context.Background(), "hi", "m", "")
	require.NoError(t, err)
	assert.Equal(t, "No response.", reply.Text)
	assert.Equal(t, "c1", reply.ConversationId)
}

func TestSendMessage_Malformed(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	_, err := client.SendMessage(context.Background(), "hi", "m", "")
	assert.Equal(t, core.MalformedResponse, core.KindOf(err))
}

func TestStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "message": "ok"})
	})

	s, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "ok", s.Message)
}
