package repositories

import (
	"context"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
)

type PendingMessageRepository interface {
	Add(ctx context.Context, msg *models.PendingMessage) error

	RemoveAllForConversation(ctx context.Context, chatID int64) (int, error)

	All(ctx context.Context) []*models.PendingMessage

	FindByConversation(ctx context.Context, chatID int64) []*models.PendingMessage

	SetTier(ctx context.Context, key models.MessageKey, tier int) error

	MarkTierNotified(ctx context.Context, key models.MessageKey, tier int) error

	ClearAll(ctx context.Context) (int, error)

	Count(ctx context.Context) int
}
