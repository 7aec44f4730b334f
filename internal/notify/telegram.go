package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
	"github.com/sony/gobreaker/v2"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramConfig configures the admin chat channel. Missing token or chat id
// disables the channel.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	// APIBase overrides the Telegram endpoint, for tests.
	APIBase string
}

// Telegram posts order alerts to the admin chat. Outbound calls go through a
// circuit breaker so a flapping Telegram API stops being hammered while
// orders keep flowing.
type Telegram struct {
	cfg     TelegramConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.APIBase == "" {
		cfg.APIBase = telegramAPIBase
	}
	return &Telegram{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "telegram",
			Timeout: time.Minute,
		}),
	}
}

func (t *Telegram) Enabled() bool {
	return t.cfg.BotToken != "" && t.cfg.ChatID != ""
}

func (t *Telegram) SendOrderAlert(ctx context.Context, n domain.OrderNotification) error {
	_, err := t.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, t.sendMessage(ctx, formatOrderMessage(n))
	})
	return err
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":                  t.cfg.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.APIBase, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram api returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func formatOrderMessage(n domain.OrderNotification) string {
	var b strings.Builder
	b.WriteString("🛒 <b>NEW ORDER!</b>\n\n")
	fmt.Fprintf(&b, "<b>Order:</b> <code>%s</code>\n", escapeHTML(n.OrderNumber))
	fmt.Fprintf(&b, "<b>Customer:</b> %s\n", escapeHTML(n.CustomerName))
	fmt.Fprintf(&b, "<b>Email:</b> %s\n", escapeHTML(n.CustomerEmail))
	if n.CustomerPhone != "" {
		fmt.Fprintf(&b, "<b>Phone:</b> %s\n", escapeHTML(n.CustomerPhone))
	}

	b.WriteString("\n<b>Items:</b>\n")
	for _, item := range n.Items {
		fmt.Fprintf(&b, "  • %s: €%d\n", escapeHTML(item.Title), item.PriceEUR)
	}

	fmt.Fprintf(&b, "\n<b>Subtotal:</b> €%d\n", n.SubtotalEUR)
	fmt.Fprintf(&b, "<b>Total:</b> %s %d\n\n", escapeHTML(n.CurrencyCode), n.TotalLocal)
	fmt.Fprintf(&b, "<b>Ship to:</b> %s, %s, %s\n",
		escapeHTML(n.ShippingAddress), escapeHTML(n.ShippingCity), escapeHTML(n.ShippingCountry))
	if n.Note != "" {
		fmt.Fprintf(&b, "<b>Note:</b> %s\n", escapeHTML(n.Note))
	}
	return b.String()
}
