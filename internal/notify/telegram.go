package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramClient implements TelegramSender against the Bot API. Sends are
// rate limited to stay inside the Bot API's per-bot send limit.
type TelegramClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTelegramClient returns a client for the given bot token.
func NewTelegramClient(token string) *TelegramClient {
	return &TelegramClient{
		token:      token,
		baseURL:    telegramAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second/25), 5),
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (client *TelegramClient) WithBaseURL(baseURL string) *TelegramClient {
	client.baseURL = baseURL
	return client
}

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (client *TelegramClient) SendTelegram(ctx context.Context, chatID string, text string) error {
	if chatID == "" {
		return fmt.Errorf("telegram: empty chat id")
	}
	if err := client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}
	payload, err := json.Marshal(telegramSendRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram marshal: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", client.baseURL, client.token)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer func() { _ = response.Body.Close() }()
	var parsed telegramSendResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("telegram decode: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram api: %s", parsed.Description)
	}
	return nil
}
