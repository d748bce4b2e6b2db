package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common/httputil"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common/metrics"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/config"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/clients"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
)

var tokenPattern = regexp.MustCompile(`https://api\.telegram\.org/bot([^/\s]+)`)

// TelegramClient публикует и удаляет отчёты через Telegram Bot API.
// Запросы идут через resty с ретраями и circuit breaker,
// частота ограничена rate limiter'ом.
type TelegramClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	baseURL string
}

func NewTelegramClient(cfg *config.Config, logger *slog.Logger) clients.ReportTransport {
	return NewTelegramClientWithBaseURL(cfg, logger,
		fmt.Sprintf("https://api.telegram.org/bot%s", cfg.TelegramBotToken))
}

func NewTelegramClientWithBaseURL(cfg *config.Config, logger *slog.Logger, baseURL string) clients.ReportTransport {
	client := httputil.CreateResilientHTTPClient(cfg, logger, "telegram")

	return &TelegramClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.TelegramSendRate), cfg.TelegramSendBurst),
		logger:  logger,
		baseURL: baseURL,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (c *TelegramClient) SendReport(ctx context.Context, chatID int64, text string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	start := time.Now()

	var response apiResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		SetResult(&response).
		SetError(&response).
		Post(c.baseURL + "/sendMessage")

	metrics.RecordTelegramRequest("sendMessage", time.Since(start))

	if err != nil {
		return 0, &errors.ErrSendReport{ChatID: chatID, Cause: c.sanitizeError(err)}
	}

	if resp.StatusCode() != http.StatusOK || !response.OK {
		return 0, &errors.ErrSendReport{
			ChatID: chatID,
			Cause:  fmt.Errorf("статус %d: %s", resp.StatusCode(), response.Description),
		}
	}

	return response.Result.MessageID, nil
}

func (c *TelegramClient) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()

	var response apiResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    chatID,
			"message_id": messageID,
		}).
		SetResult(&response).
		SetError(&response).
		Post(c.baseURL + "/deleteMessage")

	metrics.RecordTelegramRequest("deleteMessage", time.Since(start))

	if err != nil {
		return &errors.ErrDeleteReport{ChatID: chatID, MessageID: messageID, Cause: c.sanitizeError(err)}
	}

	if resp.StatusCode() != http.StatusOK || !response.OK {
		return &errors.ErrDeleteReport{
			ChatID:    chatID,
			MessageID: messageID,
			Cause:     fmt.Errorf("статус %d: %s", resp.StatusCode(), response.Description),
		}
	}

	return nil
}

// Токен бота входит в URL запроса и не должен утекать в логи.
func (c *TelegramClient) sanitizeError(err error) error {
	if err == nil {
		return nil
	}

	sanitized := tokenPattern.ReplaceAllString(err.Error(), "https://api.telegram.org/bot[MASKED_TOKEN]")

	return fmt.Errorf("%s", sanitized)
}
