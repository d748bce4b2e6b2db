package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common/metrics"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/clients"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/repositories"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
)

type PublishResult string

const (
	PublishSkippedCooldown PublishResult = "skipped_cooldown"
	PublishSkippedNoChat   PublishResult = "skipped_no_chat"
	PublishDone            PublishResult = "published"
	PublishFailed          PublishResult = "failed"
)

// Dispatcher владеет жизненным циклом сводного отчёта: кулдаун,
// удаление устаревших публикаций, отправка новой, учёт ID.
// Сетевые вызовы выполняются без блокировки состояния.
type Dispatcher struct {
	transport clients.ReportTransport
	repo      repositories.PendingMessageRepository
	composer  *Composer
	store     persistence.StateStore
	logger    *slog.Logger
	cooldown  time.Duration

	state models.NotificationState
	mu    sync.Mutex
}

func NewDispatcher(
	transport clients.ReportTransport,
	repo repositories.PendingMessageRepository,
	composer *Composer,
	store persistence.StateStore,
	cooldown time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		repo:      repo,
		composer:  composer,
		store:     store,
		logger:    logger,
		cooldown:  cooldown,
	}
}

// Restore загружает учёт публикаций из StateStore.
func (d *Dispatcher) Restore(ctx context.Context) error {
	payload, err := d.store.Load(ctx, persistence.KeyNotificationState)
	if err != nil {
		return err
	}

	if payload == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return json.Unmarshal(payload, &d.state)
}

// MaybePublish обновляет сводный отчёт в рабочем чате.
// force=true обходит кулдаун (вынужденное обновление после ответа
// менеджера или команды оператора).
func (d *Dispatcher) MaybePublish(ctx context.Context, workChatID int64, cfg *models.FunnelConfig, force bool) PublishResult {
	if workChatID == 0 {
		d.logger.Warn("Рабочий чат не установлен, отчёт не публикуется")
		return PublishSkippedNoChat
	}

	now := time.Now()

	d.mu.Lock()

	if !force && !d.state.LastPublishedAt.IsZero() && now.Sub(d.state.LastPublishedAt) < d.cooldown {
		d.mu.Unlock()
		return PublishSkippedCooldown
	}

	previous := append([]int64(nil), d.state.ActiveMessageIDs...)
	d.mu.Unlock()

	d.deleteSuperseded(ctx, workChatID, previous)

	snapshot := d.repo.All(ctx)
	report := d.composer.Compose(snapshot, cfg, now)

	messageID, err := d.transport.SendReport(ctx, workChatID, report)
	if err != nil {
		d.logger.Error("Не удалось опубликовать отчёт",
			"chatID", workChatID,
			"error", err,
		)
		metrics.RecordReportPublished("error")

		return PublishFailed
	}

	metrics.RecordReportPublished("success")

	d.mu.Lock()
	d.state.RecordPublished(messageID, now)
	d.flushState(ctx)
	d.mu.Unlock()

	d.markNotified(ctx, snapshot)

	d.logger.Info("Сводный отчёт опубликован",
		"chatID", workChatID,
		"messageID", messageID,
		"messages", len(snapshot),
	)

	return PublishDone
}

// deleteSuperseded убирает предыдущие отчёты из чата. Ошибки удаления
// не мешают новой публикации: сообщение мог удалить администратор.
// Неудалённые ID остаются в учёте до следующей попытки, история
// ограничена models.MaxActiveReports.
func (d *Dispatcher) deleteSuperseded(ctx context.Context, workChatID int64, messageIDs []int64) {
	var errs error

	failed := make([]int64, 0, len(messageIDs))

	for _, messageID := range messageIDs {
		if err := d.transport.DeleteMessage(ctx, workChatID, messageID); err != nil {
			errs = multierr.Append(errs, err)
			failed = append(failed, messageID)

			metrics.RecordReportDeleteFailed()
		}
	}

	if errs != nil {
		d.logger.Warn("Не все устаревшие отчёты удалены",
			"error", errs,
		)
	}

	d.mu.Lock()
	d.state.ActiveMessageIDs = failed
	d.flushState(ctx)
	d.mu.Unlock()
}

// markNotified фиксирует, что текущая воронка каждого сообщения
// попала хотя бы в один опубликованный отчёт.
func (d *Dispatcher) markNotified(ctx context.Context, snapshot []*models.PendingMessage) {
	for _, msg := range snapshot {
		if msg.CurrentTier == 0 || msg.WasNotified(msg.CurrentTier) {
			continue
		}

		if err := d.repo.MarkTierNotified(ctx, msg.Key(), msg.CurrentTier); err != nil {
			// Сообщение могли разрешить, пока шла публикация.
			d.logger.Debug("Сообщение исчезло до отметки о публикации",
				"key", msg.Key().String(),
			)
		}
	}
}

// State возвращает копию учёта публикаций.
func (d *Dispatcher) State() models.NotificationState {
	d.mu.Lock()
	defer d.mu.Unlock()

	return models.NotificationState{
		ActiveMessageIDs: append([]int64(nil), d.state.ActiveMessageIDs...),
		LastPublishedAt:  d.state.LastPublishedAt,
	}
}

// Вызывается только под mu.
func (d *Dispatcher) flushState(ctx context.Context) {
	payload, err := json.Marshal(&d.state)
	if err != nil {
		d.logger.Error("Не удалось сериализовать состояние уведомлений",
			"error", err)
		return
	}

	if err := d.store.Save(ctx, persistence.KeyNotificationState, payload); err != nil {
		d.logger.Error("Не удалось сохранить состояние уведомлений",
			"error", err)
	}
}
