package domain

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramClientAPI — операции бота поверх Telegram Bot API.
type TelegramClientAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string) error

	ReplyToMessage(ctx context.Context, chatID int64, messageID int64, text string) error

	SetMyCommands(ctx context.Context, commands []BotCommand) error

	GetBot() *tgbotapi.BotAPI
}

type BotCommand struct {
	Command     string
	Description string
}
