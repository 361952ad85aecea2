package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarnotify/internal/domain/notification"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		countryCode string
		want        string
	}{
		{"domestic with trunk zero", "08012345678", "234", "2348012345678"},
		{"domestic with spaces", "0801 234 5678", "234", "2348012345678"},
		{"international with plus", "+2348012345678", "234", "2348012345678"},
		{"already international", "2348012345678", "234", "2348012345678"},
		{"bare local number", "8012345678", "234", "2348012345678"},
		{"formatted with punctuation", "(0801) 234-5678", "234", "2348012345678"},
		{"other country code", "0712345678", "254", "254712345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.countryCode))
		})
	}
}

func TestOptimizeMessageReplacesNonGSMCharacters(t *testing.T) {
	in := "“Hello” — it’s ready… ‘now’ – come"
	want := `"Hello" - it's ready... 'now' - come`

	assert.Equal(t, want, OptimizeMessage(in, 480))
}

func TestOptimizeMessageTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("a", 500)

	got := OptimizeMessage(long, 480)

	assert.Len(t, got, 480)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 477), strings.TrimSuffix(got, "..."))
}

func TestOptimizeMessageKeepsShortMessages(t *testing.T) {
	exact := strings.Repeat("b", 480)

	assert.Equal(t, exact, OptimizeMessage(exact, 480))
	assert.Equal(t, "short", OptimizeMessage("short", 480))
}

func TestSendSuccess(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sms/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"message_id": "msg-001"})
	}))
	defer srv.Close()

	sender := NewTermiiSender("test-key", "GTechSolar", srv.URL, "234", 480)
	outcome := sender.Send(context.Background(), &notification.Message{
		To:   "08012345678",
		Body: "Your order is ready",
	})

	assert.Equal(t, notification.StatusSent, outcome.Status)
	assert.Equal(t, "msg-001", outcome.ProviderMessageID)
	assert.Empty(t, outcome.Error)

	assert.Equal(t, "2348012345678", captured["to"])
	assert.Equal(t, "GTechSolar", captured["from"])
	assert.Equal(t, "Your order is ready", captured["sms"])
	assert.Equal(t, "plain", captured["type"])
	assert.Equal(t, "generic", captured["channel"])
	assert.Equal(t, "test-key", captured["api_key"])
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Invalid sender id"})
	}))
	defer srv.Close()

	sender := NewTermiiSender("test-key", "BadSender", srv.URL, "234", 480)
	outcome := sender.Send(context.Background(), &notification.Message{To: "08012345678", Body: "hi"})

	assert.Equal(t, notification.StatusFailed, outcome.Status)
	assert.Equal(t, "Invalid sender id", outcome.Error)
	assert.Empty(t, outcome.ProviderMessageID)
}

func TestSendMissingMessageIDIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"balance": 42})
	}))
	defer srv.Close()

	sender := NewTermiiSender("test-key", "GTechSolar", srv.URL, "234", 480)
	outcome := sender.Send(context.Background(), &notification.Message{To: "08012345678", Body: "hi"})

	assert.Equal(t, notification.StatusFailed, outcome.Status)
	assert.Equal(t, "unknown error from SMS provider", outcome.Error)
}

func TestSendUnreachableProvider(t *testing.T) {
	sender := NewTermiiSender("test-key", "GTechSolar", "http://127.0.0.1:1", "234", 480)
	outcome := sender.Send(context.Background(), &notification.Message{To: "08012345678", Body: "hi"})

	assert.Equal(t, notification.StatusFailed, outcome.Status)
	assert.NotEmpty(t, outcome.Error)
}

func TestSendOptimizesBodyBeforeDispatch(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"message_id": "msg-002"})
	}))
	defer srv.Close()

	sender := NewTermiiSender("test-key", "GTechSolar", srv.URL, "234", 480)
	sender.Send(context.Background(), &notification.Message{
		To:   "08012345678",
		Body: "It’s ready — " + strings.Repeat("x", 500),
	})

	sent, ok := captured["sms"].(string)
	require.True(t, ok)
	assert.Len(t, sent, 480)
	assert.True(t, strings.HasPrefix(sent, "It's ready - "))
	assert.True(t, strings.HasSuffix(sent, "..."))
}
