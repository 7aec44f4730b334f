package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramEnabled(t *testing.T) {
	assert.False(t, NewTelegram(TelegramConfig{}).Enabled())
	assert.False(t, NewTelegram(TelegramConfig{BotToken: "tok"}).Enabled())
	assert.False(t, NewTelegram(TelegramConfig{ChatID: "42"}).Enabled())
	assert.True(t, NewTelegram(TelegramConfig{BotToken: "tok", ChatID: "42"}).Enabled())
}

func TestTelegramSendOrderAlert(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{BotToken: "tok", ChatID: "42", APIBase: srv.URL})

	err := tg.SendOrderAlert(context.Background(), testNotification())
	require.NoError(t, err)

	assert.Equal(t, "/bottok/sendMessage", gotPath)
	assert.Equal(t, "42", gotBody["chat_id"])
	assert.Equal(t, "HTML", gotBody["parse_mode"])
	assert.Contains(t, gotBody["text"], "KL-TEST-0001")
	assert.Contains(t, gotBody["text"], "Jane Doe")
}

func TestTelegramSendOrderAlert_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{BotToken: "tok", ChatID: "42", APIBase: srv.URL})

	err := tg.SendOrderAlert(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{BotToken: "tok", ChatID: "42", APIBase: srv.URL})

	// default breaker trips after 5 consecutive failures
	for i := 0; i < 6; i++ {
		assert.Error(t, tg.SendOrderAlert(context.Background(), testNotification()))
	}
	reached := hits.Load()

	// breaker is open, further calls fail fast without reaching the server
	err := tg.SendOrderAlert(context.Background(), testNotification())
	assert.Error(t, err)
	assert.Equal(t, reached, hits.Load())
}

func TestFormatOrderMessage_EscapesHTML(t *testing.T) {
	n := testNotification()
	n.CustomerName = "Jane <script> & Co"
	n.Items[0].Title = "A <b>bold</b> painting"

	msg := formatOrderMessage(n)

	assert.Contains(t, msg, "Jane &lt;script&gt; &amp; Co")
	assert.Contains(t, msg, "A &lt;b&gt;bold&lt;/b&gt; painting")
	assert.NotContains(t, msg, "<script>")
}

func TestFormatOrderMessage_OptionalFields(t *testing.T) {
	n := testNotification()
	n.CustomerPhone = ""
	n.Note = ""

	msg := formatOrderMessage(n)
	assert.NotContains(t, msg, "Phone:")
	assert.NotContains(t, msg, "Note:")

	n.CustomerPhone = "+49 30 123456"
	n.Note = "ring the bell"
	msg = formatOrderMessage(n)
	assert.Contains(t, msg, "+49 30 123456")
	assert.Contains(t, msg, "ring the bell")
}
