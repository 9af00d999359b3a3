package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	apiBaseURL  = "https://api.telegram.org/bot"
	sendTimeout = 10 * time.Second
)

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Client is a minimal Telegram Bot API client. Sends are spaced at least one
// second apart to stay inside the per-chat throughput limit; the spacing is
// unconditional, not adaptive.
type Client struct {
	apiBase string
	client  *resty.Client
	limiter *rate.Limiter
}

func NewClient(botToken string) *Client {
	client := resty.New()
	client.SetTimeout(sendTimeout)

	return &Client{
		apiBase: apiBaseURL + botToken,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SendMessage delivers an HTML-formatted message to chatID. A silent send
// arrives without an alert sound but counts as delivered all the same.
// An API-level ok=false is a delivery failure even when the HTTP exchange
// succeeded.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, silent bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var result apiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chat_id":              chatID,
			"text":                 text,
			"parse_mode":           "HTML",
			"disable_notification": strconv.FormatBool(silent),
		}).
		SetResult(&result).
		SetError(&result).
		Get(c.apiBase + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}

	if !result.OK {
		slog.Error("Telegram API error", "chat_id", chatID, "error_code", result.ErrorCode, "description", result.Description)
		return fmt.Errorf("telegram API error [%d]: %s", result.ErrorCode, result.Description)
	}

	if resp.IsError() {
		return fmt.Errorf("telegram HTTP error: %s", resp.Status())
	}

	return nil
}
