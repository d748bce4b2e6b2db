package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common/metrics"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/repositories"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/events"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/funnel"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/notify"
)

type workChatState struct {
	ChatID int64 `json:"work_chat_id"`
}

// EscalationService — ядро воронок: приём сообщений, переклассификация
// по тику планировщика, разрешение диалогов и публикация отчёта.
// Мутации конфигурации и рабочего чата сериализуются через mu,
// цикл проверки защищён от наложения через tickMu.
type EscalationService struct {
	repo       repositories.PendingMessageRepository
	dispatcher *notify.Dispatcher
	publisher  events.EventPublisher
	store      persistence.StateStore
	workHours  *common.WorkHours
	logger     *slog.Logger

	funnels    *models.FunnelConfig
	workChatID int64
	mu         sync.RWMutex

	tickMu sync.Mutex
}

func NewEscalationService(
	repo repositories.PendingMessageRepository,
	dispatcher *notify.Dispatcher,
	publisher events.EventPublisher,
	store persistence.StateStore,
	workHours *common.WorkHours,
	funnels *models.FunnelConfig,
	logger *slog.Logger,
) *EscalationService {
	return &EscalationService{
		repo:       repo,
		dispatcher: dispatcher,
		publisher:  publisher,
		store:      store,
		workHours:  workHours,
		funnels:    funnels,
		logger:     logger,
	}
}

// Restore поднимает конфигурацию воронок и рабочий чат из StateStore.
func (s *EscalationService) Restore(ctx context.Context) error {
	payload, err := s.store.Load(ctx, persistence.KeyFunnelsConfig)
	if err != nil {
		return err
	}

	if payload != nil {
		var saved models.FunnelConfig
		if err := json.Unmarshal(payload, &saved); err != nil {
			return err
		}

		s.mu.Lock()
		s.funnels = &saved
		s.mu.Unlock()
	}

	payload, err = s.store.Load(ctx, persistence.KeyWorkChat)
	if err != nil {
		return err
	}

	if payload != nil {
		var saved workChatState
		if err := json.Unmarshal(payload, &saved); err != nil {
			return err
		}

		s.mu.Lock()
		s.workChatID = saved.ChatID
		s.mu.Unlock()
	}

	return nil
}

// Track регистрирует входящее сообщение без ответа.
// Публикация отчёта не форсируется: её делает тик планировщика,
// иначе всплеск входящих превращается в шторм уведомлений.
func (s *EscalationService) Track(ctx context.Context, msg *models.PendingMessage) error {
	if msg.FirstSeenAt.IsZero() {
		msg.FirstSeenAt = time.Now()
	}

	msg.CurrentTier = 0
	msg.TiersNotified = nil

	if err := s.repo.Add(ctx, msg); err != nil {
		metrics.RecordInboundMessage("error")
		return err
	}

	metrics.RecordInboundMessage("tracked")
	metrics.SetPendingMessages(s.repo.Count(ctx))

	s.logger.Info("Сообщение добавлено в непрочитанные",
		"chatID", msg.ChatID,
		"userID", msg.UserID,
	)

	return nil
}

// Resolve снимает все сообщения диалога после ответа менеджера
// и немедленно обновляет отчёт, не дожидаясь кулдауна.
// Ответ в диалог без непрочитанных сообщений не считается ошибкой.
func (s *EscalationService) Resolve(ctx context.Context, chatID int64, source string) (int, error) {
	removed, err := s.repo.RemoveAllForConversation(ctx, chatID)
	if err != nil {
		return 0, err
	}

	if removed == 0 {
		return 0, nil
	}

	metrics.RecordResolution(source)
	metrics.SetPendingMessages(s.repo.Count(ctx))

	if err := s.publisher.PublishResolution(ctx, chatID, removed); err != nil {
		s.logger.Warn("Событие о разрешении не отправлено",
			"chatID", chatID,
			"error", err,
		)
	}

	s.logger.Info("Диалог разрешён",
		"chatID", chatID,
		"removed", removed,
		"source", source,
	)

	s.ForceRefresh(ctx)

	return removed, nil
}

// CheckPending — периодический цикл: переклассификация и публикация.
// Наложившийся тик пропускается, а не ставится в очередь.
func (s *EscalationService) CheckPending(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.logger.Warn("Предыдущая проверка воронок ещё выполняется, тик пропущен")
		return
	}
	defer s.tickMu.Unlock()

	s.runCycle(ctx, false)
}

// ForceRefresh выполняет полный цикл с публикацией в обход кулдауна.
func (s *EscalationService) ForceRefresh(ctx context.Context) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.runCycle(ctx, true)
}

func (s *EscalationService) runCycle(ctx context.Context, force bool) {
	start := time.Now()
	defer func() {
		metrics.RecordTick(time.Since(start))
	}()

	now := time.Now()

	if !force && !s.workHours.IsWorking(now) {
		s.logger.Info("Нерабочее время, проверка воронок пропущена")
		return
	}

	cfg := s.Funnels()
	snapshot := s.repo.All(ctx)

	for _, msg := range snapshot {
		newTier := funnel.Classify(msg, cfg, now)
		if newTier == msg.CurrentTier {
			continue
		}

		if err := s.repo.SetTier(ctx, msg.Key(), newTier); err != nil {
			// Сообщение могли разрешить между снимком и записью.
			continue
		}

		metrics.RecordEscalation(strconv.Itoa(newTier))

		if err := s.publisher.PublishEscalation(ctx, msg, newTier); err != nil {
			s.logger.Warn("Событие об эскалации не отправлено",
				"chatID", msg.ChatID,
				"tier", newTier,
				"error", err,
			)
		}

		s.logger.Info("Сообщение эскалировано",
			"chatID", msg.ChatID,
			"userID", msg.UserID,
			"tier", newTier,
		)
	}

	metrics.SetPendingMessages(s.repo.Count(ctx))

	result := s.dispatcher.MaybePublish(ctx, s.WorkChatID(), cfg, force)
	s.logger.Debug("Цикл проверки воронок завершён",
		"result", string(result),
		"force", force,
	)
}

// ClearAll удаляет все непрочитанные сообщения и обновляет отчёт.
func (s *EscalationService) ClearAll(ctx context.Context) (int, error) {
	count, err := s.repo.ClearAll(ctx)
	if err != nil {
		return 0, err
	}

	metrics.SetPendingMessages(0)

	if count > 0 {
		s.ForceRefresh(ctx)
	}

	return count, nil
}

// ClearConversation удаляет непрочитанные сообщения одного чата.
func (s *EscalationService) ClearConversation(ctx context.Context, chatID int64) (int, error) {
	return s.Resolve(ctx, chatID, "operator")
}

// Snapshot возвращает копию всех непрочитанных сообщений.
func (s *EscalationService) Snapshot(ctx context.Context) []*models.PendingMessage {
	return s.repo.All(ctx)
}

func (s *EscalationService) PendingCount(ctx context.Context) int {
	return s.repo.Count(ctx)
}

// Funnels возвращает копию текущей конфигурации воронок.
func (s *EscalationService) Funnels() *models.FunnelConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thresholds := make(map[int]int, len(s.funnels.Thresholds))
	for tier, minutes := range s.funnels.Thresholds {
		thresholds[tier] = minutes
	}

	return &models.FunnelConfig{
		Thresholds:     thresholds,
		StrictSequence: s.funnels.StrictSequence,
	}
}

// SetFunnelInterval меняет порог воронки. Неизвестная воронка и
// неположительный интервал отклоняются без изменения состояния.
func (s *EscalationService) SetFunnelInterval(ctx context.Context, tier, minutes int) error {
	if minutes <= 0 {
		return &errors.ErrInvalidInterval{Minutes: minutes}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.funnels.Thresholds[tier]; !ok {
		return &errors.ErrUnknownFunnel{Tier: tier}
	}

	s.funnels.Thresholds[tier] = minutes

	s.flushFunnels(ctx)

	s.logger.Info("Интервал воронки изменён",
		"tier", tier,
		"minutes", minutes,
	)

	return nil
}

// ResetFunnels возвращает пороги к значениям по умолчанию.
func (s *EscalationService) ResetFunnels(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	strict := s.funnels.StrictSequence
	s.funnels = models.DefaultFunnels()
	s.funnels.StrictSequence = strict

	s.flushFunnels(ctx)

	s.logger.Info("Настройки воронок сброшены к значениям по умолчанию")
}

func (s *EscalationService) WorkChatID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.workChatID
}

// SetWorkChat назначает чат для публикации сводных отчётов.
func (s *EscalationService) SetWorkChat(ctx context.Context, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workChatID = chatID

	payload, err := json.Marshal(workChatState{ChatID: chatID})
	if err != nil {
		s.logger.Error("Не удалось сериализовать рабочий чат", "error", err)
		return
	}

	if err := s.store.Save(ctx, persistence.KeyWorkChat, payload); err != nil {
		s.logger.Error("Не удалось сохранить рабочий чат", "error", err)
	}

	s.logger.Info("Рабочий чат установлен", "chatID", chatID)
}

// NotificationState отдаёт учёт публикаций для статуса и отладки.
func (s *EscalationService) NotificationState() models.NotificationState {
	return s.dispatcher.State()
}

// IsWorkingHours сообщает, идёт ли сейчас рабочее время компании.
func (s *EscalationService) IsWorkingHours() bool {
	return s.workHours.IsWorking(time.Now())
}

// Вызывается только под mu.
func (s *EscalationService) flushFunnels(ctx context.Context) {
	payload, err := json.Marshal(s.funnels)
	if err != nil {
		s.logger.Error("Не удалось сериализовать конфигурацию воронок", "error", err)
		return
	}

	if err := s.store.Save(ctx, persistence.KeyFunnelsConfig, payload); err != nil {
		s.logger.Error("Не удалось сохранить конфигурацию воронок", "error", err)
	}
}
