package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messagesServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func textMessage(text string) string {
	payload := map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "test-model",
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content":       []map[string]any{{"type": "text", "text": text}},
		"usage":         map[string]any{"input_tokens": 3, "output_tokens": 1},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *AnthropicClient {
	t.Helper()
	client, err := NewAnthropicClient(Options{
		APIKey:     "test",
		BaseURL:    url,
		Model:      "test-model",
		MaxTokens:  16,
		Timeout:    timeout,
		MaxRetries: 0,
	})
	require.NoError(t, err)
	return client
}

func TestGenerateReturnsFirstTextBlock(t *testing.T) {
	srv := messagesServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, "test-model", body["model"])
		assert.EqualValues(t, 16, body["max_tokens"])
		assert.NotNil(t, body["system"])
		_, _ = w.Write([]byte(textMessage("Electrical")))
	})

	out, err := newTestClient(t, srv.URL, time.Second).Generate(context.Background(), "sys", "streetlight")
	require.NoError(t, err)
	assert.Equal(t, "Electrical", out)
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	srv := messagesServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	})

	_, err := newTestClient(t, srv.URL, time.Second).Generate(context.Background(), "", "x")
	require.Error(t, err)
}

func TestGenerateHonoursTimeout(t *testing.T) {
	srv := messagesServer(t, func(w http.ResponseWriter, _ map[string]any) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(textMessage("late")))
	})

	_, err := newTestClient(t, srv.URL, 50*time.Millisecond).Generate(context.Background(), "", "x")
	require.Error(t, err)
}

func TestNewAnthropicClientRequiresModel(t *testing.T) {
	_, err := NewAnthropicClient(Options{APIKey: "k"})
	require.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFence(in))
	}
}
