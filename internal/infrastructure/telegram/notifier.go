package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"RecordSync/internal/ports"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// maxMessageRunes is the Bot API limit for one text message.
	maxMessageRunes = 4096
)

// Notifier posts batch summaries to one Telegram chat.
type Notifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewNotifier builds a notifier for the bot token and chat.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithBaseURL points the notifier at another bot API host.
func (n *Notifier) WithBaseURL(baseURL string, client *http.Client) *Notifier {
	n.baseURL = strings.TrimSuffix(baseURL, "/")
	if client != nil {
		n.client = client
	}
	return n
}

// PublishSummary sends the summary as plain text, cut to the message size limit.
func (n *Notifier) PublishSummary(ctx context.Context, summary string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	form := url.Values{
		"chat_id":                  {n.chatID},
		"text":                     {truncate(summary, maxMessageRunes)},
		"disable_web_page_preview": {"true"},
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var decoded apiResponse
	_ = json.Unmarshal(body, &decoded)

	if resp.StatusCode != http.StatusOK {
		if decoded.Description != "" {
			return fmt.Errorf("telegram error: %s: %s", resp.Status, decoded.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	if len(body) > 0 && json.Valid(body) && !decoded.OK {
		return fmt.Errorf("telegram rejected message: %s", decoded.Description)
	}
	return nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
