package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
)

const maxResponseLength = 4000

// EscalationEngine — операции ядра воронок, доступные через команды.
type EscalationEngine interface {
	Snapshot(ctx context.Context) []*models.PendingMessage

	PendingCount(ctx context.Context) int

	Funnels() *models.FunnelConfig

	SetFunnelInterval(ctx context.Context, tier, minutes int) error

	ResetFunnels(ctx context.Context)

	WorkChatID() int64

	SetWorkChat(ctx context.Context, chatID int64)

	ForceRefresh(ctx context.Context)

	ClearAll(ctx context.Context) (int, error)

	ClearConversation(ctx context.Context, chatID int64) (int, error)

	IsWorkingHours() bool

	NotificationState() models.NotificationState
}

// StaffRoster — управление списком менеджеров.
type StaffRoster interface {
	IsStaff(userID int64, username string) bool

	AddID(ctx context.Context, userID int64) bool

	AddUsername(ctx context.Context, username string) bool

	RemoveID(ctx context.Context, userID int64) bool

	RemoveUsername(ctx context.Context, username string) bool

	List() ([]int64, []string)

	ClearAll(ctx context.Context) int
}

// ReplyFlags — учёт автоответов для статистики и полного сброса.
type ReplyFlags interface {
	Count() int

	ClearAll(ctx context.Context)
}

// BotService обрабатывает административные команды.
// Все команды, кроме /start и /help, доступны только администраторам.
type BotService struct {
	engine   EscalationEngine
	roster   StaffRoster
	flags    ReplyFlags
	adminIDs map[int64]struct{}
	location *time.Location
}

func NewBotService(
	engine EscalationEngine,
	roster StaffRoster,
	flags ReplyFlags,
	adminIDs []int64,
	location *time.Location,
) *BotService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return &BotService{
		engine:   engine,
		roster:   roster,
		flags:    flags,
		adminIDs: admins,
		location: location,
	}
}

func (s *BotService) IsAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

func (s *BotService) ProcessCommand(ctx context.Context, command *models.Command) (string, error) {
	switch command.Type {
	case models.CommandStart:
		return s.handleStart(), nil
	case models.CommandHelp:
		return s.handleHelp(), nil
	}

	if !s.IsAdmin(command.UserID) {
		return "❌ У вас нет прав для выполнения этой команды", &errors.ErrAccessDenied{UserID: command.UserID}
	}

	switch command.Type {
	case models.CommandStatus:
		return s.handleStatus(ctx), nil
	case models.CommandStats:
		return s.handleStats(ctx), nil
	case models.CommandFunnels:
		return s.handleFunnels(), nil
	case models.CommandSetFunnel:
		return s.handleSetFunnel(ctx, command)
	case models.CommandResetFunnels:
		s.engine.ResetFunnels(ctx)
		return "✅ Настройки воронок сброшены к значениям по умолчанию", nil
	case models.CommandSetWorkChat:
		s.engine.SetWorkChat(ctx, command.ChatID)
		return fmt.Sprintf("✅ Этот чат установлен как рабочий (ID: %d)", command.ChatID), nil
	case models.CommandPending:
		return s.handlePending(ctx), nil
	case models.CommandClearPending:
		return s.handleClearPending(ctx)
	case models.CommandClearChat:
		return s.handleClearChat(ctx, command)
	case models.CommandResetAll:
		return s.handleResetAll(ctx)
	case models.CommandForceCheck:
		s.engine.ForceRefresh(ctx)
		return "✅ Проверка воронок завершена", nil
	case models.CommandAddException:
		return s.handleAddException(ctx, command)
	case models.CommandRemoveException:
		return s.handleRemoveException(ctx, command)
	case models.CommandListExceptions, models.CommandManagers:
		return s.handleManagers(), nil
	case models.CommandClearExceptions:
		count := s.roster.ClearAll(ctx)
		return fmt.Sprintf("✅ Все исключения очищены (%d шт.)", count), nil
	default:
		return "Неизвестная команда. Введите /help для просмотра доступных команд.",
			&errors.ErrUnknownCommand{Command: command.Text}
	}
}

func (s *BotService) handleStart() string {
	return "🤖 Бот-автоответчик запущен!\n\n" +
		"📋 Доступные команды:\n" +
		"/status - статус системы\n" +
		"/funnels - настройки воронок\n" +
		"/pending - список непрочитанных\n" +
		"/managers - список менеджеров\n" +
		"/stats - статистика\n" +
		"/help - помощь"
}

func (s *BotService) handleHelp() string {
	return `📖 СПРАВКА ПО КОМАНДАМ БОТА

Основные команды:
/start - запуск бота
/status - статус системы
/help - эта справка

Управление воронками:
/funnels - текущие настройки воронок
/set_funnel_1 <минуты> - интервал 1-й воронки
/set_funnel_2 <минуты> - интервал 2-й воронки
/set_funnel_3 <минуты> - интервал 3-й воронки
/reset_funnels - сбросить настройки воронок

Рабочий чат:
/set_work_chat - установить этот чат как рабочий

Управление сообщениями:
/pending - список непрочитанных сообщений
/clear_pending - очистить все непрочитанные
/clear_chat <ID чата> - очистить непрочитанные одного чата
/reset_all - полный сброс системы
/force_check - принудительная проверка воронок

Управление исключениями:
/add_exception <ID/@username> - добавить менеджера
/remove_exception <ID/@username> - удалить менеджера
/list_exceptions - список всех менеджеров
/clear_exceptions - очистить все исключения

Статистика:
/stats - статистика системы
/managers - список менеджеров`
}

func (s *BotService) handleStatus(ctx context.Context) string {
	now := time.Now().In(s.location)
	cfg := s.engine.Funnels()
	ids, usernames := s.roster.List()

	working := "❌ НЕТ"
	if s.engine.IsWorkingHours() {
		working = "✅ ДА"
	}

	workChat := "❌ Не установлен"
	if s.engine.WorkChatID() != 0 {
		workChat = "✅ Установлен"
	}

	var b strings.Builder

	b.WriteString("📊 СТАТУС СИСТЕМЫ\n\n")
	fmt.Fprintf(&b, "⏰ Время: %s\n", now.Format("02.01.2006 15:04:05"))
	fmt.Fprintf(&b, "🕐 Рабочие часы: %s\n\n", working)
	fmt.Fprintf(&b, "📋 Непрочитанные сообщения: %d\n", s.engine.PendingCount(ctx))
	fmt.Fprintf(&b, "🚩 Флаги автоответов: %d\n", s.flags.Count())
	fmt.Fprintf(&b, "💬 Рабочий чат: %s\n\n", workChat)
	b.WriteString("⚙️ НАСТРОЙКИ ВОРОНОК:\n")

	for _, tier := range cfg.Tiers() {
		minutes, _ := cfg.Threshold(tier)
		fmt.Fprintf(&b, "%s Воронка %d: %d мин (%s)\n",
			models.FunnelEmoji(tier), tier, minutes, common.FormatMinutes(minutes))
	}

	fmt.Fprintf(&b, "\n👥 Менеджеров в системе: %d (%d ID + %d username)",
		len(ids)+len(usernames), len(ids), len(usernames))

	return b.String()
}

func (s *BotService) handleStats(ctx context.Context) string {
	snapshot := s.engine.Snapshot(ctx)
	ids, usernames := s.roster.List()
	now := time.Now()

	var underHour, oneToThree, threeToSix, overSix int

	for _, msg := range snapshot {
		hours := now.Sub(msg.FirstSeenAt).Hours()

		switch {
		case hours < 1:
			underHour++
		case hours < 3:
			oneToThree++
		case hours < 6:
			threeToSix++
		default:
			overSix++
		}
	}

	workChat := "❌ Не установлен"
	if s.engine.WorkChatID() != 0 {
		workChat = "✅ Установлен"
	}

	var b strings.Builder

	b.WriteString("📈 СТАТИСТИКА СИСТЕМЫ\n\n")
	b.WriteString("📊 Общая статистика:\n")
	fmt.Fprintf(&b, "   - Непрочитанных сообщений: %d\n", len(snapshot))
	fmt.Fprintf(&b, "   - Флагов автоответов: %d\n", s.flags.Count())
	fmt.Fprintf(&b, "   - Менеджеров в системе: %d (%d ID + %d username)\n\n",
		len(ids)+len(usernames), len(ids), len(usernames))
	b.WriteString("⏱ Время ожидания ответа:\n")
	fmt.Fprintf(&b, "   - Менее 1 часа: %d\n", underHour)
	fmt.Fprintf(&b, "   - 1-3 часа: %d\n", oneToThree)
	fmt.Fprintf(&b, "   - 3-6 часов: %d\n", threeToSix)
	fmt.Fprintf(&b, "   - Более 6 часов: %d\n\n", overSix)
	fmt.Fprintf(&b, "⚙️ Рабочий чат: %s\n", workChat)
	fmt.Fprintf(&b, "🕐 Текущее время: %s", now.In(s.location).Format("15:04:05"))

	return b.String()
}

func (s *BotService) handleFunnels() string {
	cfg := s.engine.Funnels()

	var b strings.Builder

	b.WriteString("⚙️ ТЕКУЩИЕ НАСТРОЙКИ ВОРОНОК\n")

	for _, tier := range cfg.Tiers() {
		minutes, _ := cfg.Threshold(tier)
		fmt.Fprintf(&b, "\n%s Воронка %d:\n", models.FunnelEmoji(tier), tier)
		fmt.Fprintf(&b, "   - Интервал: %d минут (%s)\n", minutes, common.FormatMinutes(minutes))
		fmt.Fprintf(&b, "   - Команда: /set_funnel_%d <минуты>\n", tier)
	}

	b.WriteString("\n🔄 Сбросить настройки: /reset_funnels")

	return b.String()
}

func (s *BotService) handleSetFunnel(ctx context.Context, command *models.Command) (string, error) {
	if len(command.Args) < 2 {
		return "❌ Использование: /set_funnel_N <минуты>",
			&errors.ErrInvalidArgument{Message: "не указан интервал воронки"}
	}

	tier, err := strconv.Atoi(command.Args[0])
	if err != nil {
		return "❌ Номер воронки должен быть числом",
			&errors.ErrInvalidArgument{Message: "неверный номер воронки"}
	}

	minutes, err := strconv.Atoi(command.Args[1])
	if err != nil {
		return "❌ Количество минут должно быть положительным числом",
			&errors.ErrInvalidArgument{Message: "неверный интервал воронки"}
	}

	if err := s.engine.SetFunnelInterval(ctx, tier, minutes); err != nil {
		return "❌ Ошибка установки интервала воронки", err
	}

	return fmt.Sprintf("✅ Воронка %d установлена на %d минут (%s)",
		tier, minutes, common.FormatMinutes(minutes)), nil
}

func (s *BotService) handlePending(ctx context.Context) string {
	snapshot := s.engine.Snapshot(ctx)

	if len(snapshot) == 0 {
		return "✅ Нет непрочитанных сообщений"
	}

	type chatGroup struct {
		display  string
		count    int
		oldestAt time.Time
	}

	byChat := make(map[int64]*chatGroup)
	ordered := make([]*chatGroup, 0)

	for _, msg := range snapshot {
		group, exists := byChat[msg.ChatID]
		if !exists {
			group = &chatGroup{display: msg.DisplayName(), oldestAt: msg.FirstSeenAt}
			byChat[msg.ChatID] = group
			ordered = append(ordered, group)
		}

		group.count++

		if msg.FirstSeenAt.Before(group.oldestAt) {
			group.oldestAt = msg.FirstSeenAt
		}
	}

	now := time.Now()

	var b strings.Builder

	fmt.Fprintf(&b, "📋 НЕПРОЧИТАННЫЕ СООБЩЕНИЯ\n\nВсего сообщений: %d\nЧатов: %d\n\n",
		len(snapshot), len(ordered))

	for i, group := range ordered {
		fmt.Fprintf(&b, "%d. %s\n", i+1, group.display)
		fmt.Fprintf(&b, "   📝 Сообщений: %d\n", group.count)
		fmt.Fprintf(&b, "   ⏰ Самое старое: %s назад\n\n", common.FormatElapsed(now.Sub(group.oldestAt)))
	}

	text := b.String()
	if len(text) > maxResponseLength {
		text = text[:maxResponseLength] + "\n\n... (сообщение обрезано)"
	}

	return text
}

func (s *BotService) handleClearPending(ctx context.Context) (string, error) {
	count, err := s.engine.ClearAll(ctx)
	if err != nil {
		return "❌ Не удалось очистить непрочитанные сообщения", err
	}

	return fmt.Sprintf("✅ Очищены все непрочитанные сообщения (%d шт.)", count), nil
}

func (s *BotService) handleClearChat(ctx context.Context, command *models.Command) (string, error) {
	if len(command.Args) == 0 {
		return "❌ Использование: /clear_chat <ID чата>",
			&errors.ErrInvalidArgument{Message: "не указан ID чата"}
	}

	chatID, err := strconv.ParseInt(command.Args[0], 10, 64)
	if err != nil {
		return "❌ ID чата должен быть числом",
			&errors.ErrInvalidArgument{Message: "неверный ID чата"}
	}

	count, clearErr := s.engine.ClearConversation(ctx, chatID)
	if clearErr != nil {
		return "❌ Не удалось очистить сообщения чата", clearErr
	}

	return fmt.Sprintf("✅ Удалено непрочитанных сообщений чата %d: %d", chatID, count), nil
}

func (s *BotService) handleResetAll(ctx context.Context) (string, error) {
	pendingCount, err := s.engine.ClearAll(ctx)
	if err != nil {
		return "❌ Не удалось выполнить полный сброс", err
	}

	flagsCount := s.flags.Count()
	s.flags.ClearAll(ctx)

	return fmt.Sprintf("✅ Полный сброс системы выполнен:\n"+
		"🗑 Удалено непрочитанных сообщений: %d\n"+
		"🚩 Очищено флагов автоответов: %d", pendingCount, flagsCount), nil
}

func (s *BotService) handleAddException(ctx context.Context, command *models.Command) (string, error) {
	if len(command.Args) == 0 {
		return "❌ Использование:\n" +
				"Добавить по ID: /add_exception 123456789\n" +
				"Добавить по username: /add_exception @username",
			&errors.ErrInvalidArgument{Message: "не указан пользователь"}
	}

	identifier := command.Args[0]

	if userID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if s.roster.AddID(ctx, userID) {
			return fmt.Sprintf("✅ Пользователь с ID %d добавлен в исключения", userID), nil
		}

		return fmt.Sprintf("ℹ️ Пользователь с ID %d уже в исключениях", userID), nil
	}

	username := strings.TrimPrefix(identifier, "@")
	if s.roster.AddUsername(ctx, username) {
		return fmt.Sprintf("✅ Пользователь @%s добавлен в исключения", username), nil
	}

	return fmt.Sprintf("ℹ️ Пользователь @%s уже в исключениях", username), nil
}

func (s *BotService) handleRemoveException(ctx context.Context, command *models.Command) (string, error) {
	if len(command.Args) == 0 {
		return "❌ Использование:\n" +
				"Удалить по ID: /remove_exception 123456789\n" +
				"Удалить по username: /remove_exception @username",
			&errors.ErrInvalidArgument{Message: "не указан пользователь"}
	}

	identifier := command.Args[0]

	if userID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if s.roster.RemoveID(ctx, userID) {
			return fmt.Sprintf("✅ Пользователь с ID %d удалён из исключений", userID), nil
		}

		return fmt.Sprintf("ℹ️ Пользователь с ID %d не найден в исключениях", userID), nil
	}

	username := strings.TrimPrefix(identifier, "@")
	if s.roster.RemoveUsername(ctx, username) {
		return fmt.Sprintf("✅ Пользователь @%s удалён из исключений", username), nil
	}

	return fmt.Sprintf("ℹ️ Пользователь @%s не найден в исключениях", username), nil
}

func (s *BotService) handleManagers() string {
	ids, usernames := s.roster.List()

	if len(ids) == 0 && len(usernames) == 0 {
		return "📝 Список менеджеров пуст"
	}

	var b strings.Builder

	b.WriteString("👥 СПИСОК МЕНЕДЖЕРОВ\n\n")

	if len(ids) > 0 {
		b.WriteString("🆔 По ID:\n")

		for i, id := range ids {
			fmt.Fprintf(&b, "%d. %d\n", i+1, id)
		}

		b.WriteString("\n")
	}

	if len(usernames) > 0 {
		b.WriteString("👤 По username:\n")

		for i, username := range usernames {
			fmt.Fprintf(&b, "%d. @%s\n", i+1, username)
		}
	}

	fmt.Fprintf(&b, "\n📊 Всего: %d ID + %d username", len(ids), len(usernames))

	return b.String()
}
