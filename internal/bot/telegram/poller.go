package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/bot/domain"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common/metrics"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
)

// MessageEngine — приём клиентских сообщений и снятие диалогов после ответа.
type MessageEngine interface {
	Track(ctx context.Context, msg *models.PendingMessage) error

	Resolve(ctx context.Context, chatID int64, source string) (int, error)
}

type StaffChecker interface {
	IsStaff(userID int64, username string) bool
}

type AutoReplyTracker interface {
	HasReplied(key string) bool

	SetReplied(ctx context.Context, key string)

	ClearReplied(ctx context.Context, key string)
}

type CommandProcessor interface {
	ProcessCommand(ctx context.Context, command *models.Command) (string, error)
}

// Poller слушает обновления Telegram через long polling и раскладывает их
// по трём маршрутам: команды, ответы менеджеров, клиентские сообщения.
type Poller struct {
	client        domain.TelegramClientAPI
	commands      CommandProcessor
	engine        MessageEngine
	roster        StaffChecker
	flags         AutoReplyTracker
	workHours     *common.WorkHours
	autoReplyText string
	logger        *slog.Logger
	stopChan      chan struct{}
}

func NewPoller(
	client domain.TelegramClientAPI,
	commands CommandProcessor,
	engine MessageEngine,
	roster StaffChecker,
	flags AutoReplyTracker,
	workHours *common.WorkHours,
	autoReplyText string,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		client:        client,
		commands:      commands,
		engine:        engine,
		roster:        roster,
		flags:         flags,
		workHours:     workHours,
		autoReplyText: autoReplyText,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := p.client.GetBot().GetUpdatesChan(updateConfig)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopChan:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}

				p.ProcessUpdate(ctx, update)
			}
		}
	}()

	p.logger.Info("Запущен прием обновлений Telegram")
}

func (p *Poller) Stop() {
	close(p.stopChan)
	p.client.GetBot().StopReceivingUpdates()
	p.logger.Info("Прием обновлений Telegram остановлен")
}

func (p *Poller) ProcessUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.EditedMessage != nil {
		metrics.RecordInboundMessage("skipped")
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if msg.IsCommand() {
		p.handleCommand(ctx, msg)
		return
	}

	if !p.eligible(msg) {
		metrics.RecordInboundMessage("skipped")
		return
	}

	if p.roster.IsStaff(msg.From.ID, msg.From.UserName) {
		p.handleStaffReply(ctx, msg)
		return
	}

	p.handleClientMessage(ctx, msg)
}

// eligible отсекает сообщения, которые не требуют обработки:
// сервисные события, сообщения ботов, сообщения без содержимого.
func (p *Poller) eligible(msg *tgbotapi.Message) bool {
	if msg.From.IsBot {
		return false
	}

	if len(msg.NewChatMembers) > 0 || msg.LeftChatMember != nil || msg.PinnedMessage != nil {
		return false
	}

	return messageText(msg) != ""
}

// messageText возвращает текст сообщения, подпись к медиа или
// заглушку по типу вложения. Пустая строка означает отсутствие содержимого.
func messageText(msg *tgbotapi.Message) string {
	if text := strings.TrimSpace(msg.Text); text != "" {
		return text
	}

	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		return caption
	}

	switch {
	case msg.Photo != nil:
		return "[фото]"
	case msg.Document != nil:
		return "[документ]"
	case msg.Voice != nil:
		return "[голосовое сообщение]"
	case msg.VideoNote != nil:
		return "[видеосообщение]"
	case msg.Video != nil:
		return "[видео]"
	case msg.Sticker != nil:
		return "[стикер]"
	case msg.Audio != nil:
		return "[аудио]"
	case msg.Contact != nil:
		return "[контакт]"
	case msg.Location != nil:
		return "[геопозиция]"
	default:
		return ""
	}
}

func (p *Poller) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := p.parseCommand(msg)

	metrics.RecordInboundMessage("command")

	response, err := p.commands.ProcessCommand(ctx, command)
	if err != nil {
		p.logger.Warn("Ошибка обработки команды",
			"команда", command.Text,
			"пользователь", command.UserID,
			"ошибка", err)
	}

	if response == "" {
		return
	}

	if err := p.client.SendMessage(ctx, msg.Chat.ID, response); err != nil {
		p.logger.Error("Не удалось отправить ответ на команду",
			"чат", msg.Chat.ID,
			"ошибка", err)
	}
}

func (p *Poller) handleStaffReply(ctx context.Context, msg *tgbotapi.Message) {
	metrics.RecordInboundMessage("manager_reply")

	removed, err := p.engine.Resolve(ctx, msg.Chat.ID, "manager_reply")
	if err != nil {
		p.logger.Error("Ошибка снятия диалога после ответа менеджера",
			"чат", msg.Chat.ID,
			"ошибка", err)

		return
	}

	if removed > 0 {
		p.logger.Info("Менеджер ответил, диалог снят с контроля",
			"чат", msg.Chat.ID,
			"удалено", removed)
	}
}

func (p *Poller) handleClientMessage(ctx context.Context, msg *tgbotapi.Message) {
	flagKey := autoReplyKey(msg)

	if !p.workHours.IsWorking(time.Now()) {
		metrics.RecordInboundMessage("after_hours")

		if p.flags.HasReplied(flagKey) {
			return
		}

		if err := p.client.ReplyToMessage(ctx, msg.Chat.ID, int64(msg.MessageID), p.autoReplyText); err != nil {
			p.logger.Error("Не удалось отправить автоответ",
				"чат", msg.Chat.ID,
				"ошибка", err)

			return
		}

		p.flags.SetReplied(ctx, flagKey)
		p.logger.Info("Отправлен автоответ о нерабочем времени", "чат", msg.Chat.ID)

		return
	}

	p.flags.ClearReplied(ctx, flagKey)

	pending := &models.PendingMessage{
		ChatID:      msg.Chat.ID,
		UserID:      msg.From.ID,
		MessageID:   int64(msg.MessageID),
		Text:        messageText(msg),
		ChatTitle:   msg.Chat.Title,
		Username:    msg.From.UserName,
		FirstName:   msg.From.FirstName,
		FirstSeenAt: time.Now(),
	}

	if err := p.engine.Track(ctx, pending); err != nil {
		p.logger.Error("Не удалось поставить сообщение на контроль",
			"чат", msg.Chat.ID,
			"пользователь", msg.From.ID,
			"ошибка", err)
	}
}

func (p *Poller) parseCommand(msg *tgbotapi.Message) *models.Command {
	args := strings.Fields(msg.CommandArguments())

	command := &models.Command{
		ChatID:   msg.Chat.ID,
		UserID:   msg.From.ID,
		Text:     msg.Text,
		Args:     args,
		Username: msg.From.UserName,
	}

	name := msg.Command()

	switch name {
	case "start":
		command.Type = models.CommandStart
	case "help":
		command.Type = models.CommandHelp
	case "status":
		command.Type = models.CommandStatus
	case "stats":
		command.Type = models.CommandStats
	case "funnels":
		command.Type = models.CommandFunnels
	case "set_funnel_1", "set_funnel_2", "set_funnel_3":
		command.Type = models.CommandSetFunnel
		tier := strings.TrimPrefix(name, "set_funnel_")
		command.Args = append([]string{tier}, args...)
	case "reset_funnels":
		command.Type = models.CommandResetFunnels
	case "set_work_chat":
		command.Type = models.CommandSetWorkChat
	case "pending":
		command.Type = models.CommandPending
	case "clear_pending":
		command.Type = models.CommandClearPending
	case "clear_chat":
		command.Type = models.CommandClearChat
	case "reset_all":
		command.Type = models.CommandResetAll
	case "force_check":
		command.Type = models.CommandForceCheck
	case "add_exception":
		command.Type = models.CommandAddException
	case "remove_exception":
		command.Type = models.CommandRemoveException
	case "list_exceptions":
		command.Type = models.CommandListExceptions
	case "clear_exceptions":
		command.Type = models.CommandClearExceptions
	case "managers":
		command.Type = models.CommandManagers
	default:
		command.Type = models.CommandUnknown
	}

	return command
}

func autoReplyKey(msg *tgbotapi.Message) string {
	if msg.Chat.IsPrivate() {
		return fmt.Sprintf("user_%d", msg.From.ID)
	}

	return fmt.Sprintf("chat_%d", msg.Chat.ID)
}

// BotCommands — список команд для метода setMyCommands.
func BotCommands() []domain.BotCommand {
	return []domain.BotCommand{
		{Command: "start", Description: "Запуск бота"},
		{Command: "status", Description: "Статус системы"},
		{Command: "funnels", Description: "Настройки воронок"},
		{Command: "pending", Description: "Непрочитанные сообщения"},
		{Command: "managers", Description: "Список менеджеров"},
		{Command: "stats", Description: "Статистика"},
		{Command: "help", Description: "Справка по командам"},
	}
}
