package clients

import (
	"context"
)

// ReportTransport — канал публикации сводных отчётов в рабочий чат.
type ReportTransport interface {
	// SendReport публикует текст и возвращает ID сообщения.
	SendReport(ctx context.Context, chatID int64, text string) (int64, error)

	// DeleteMessage удаляет ранее опубликованный отчёт.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}
