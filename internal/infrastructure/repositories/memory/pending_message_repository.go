package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
)

// PendingMessageRepository хранит непрочитанные сообщения в памяти
// и сбрасывает снимок в StateStore после каждой мутации.
// Порядок вставки сохраняется для стабильного вывода в отчётах.
type PendingMessageRepository struct {
	messages map[string]*models.PendingMessage
	order    []string
	store    persistence.StateStore
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewPendingMessageRepository(store persistence.StateStore, logger *slog.Logger) *PendingMessageRepository {
	return &PendingMessageRepository{
		messages: make(map[string]*models.PendingMessage),
		store:    store,
		logger:   logger,
	}
}

// Restore загружает ранее сохранённые сообщения из StateStore.
func (r *PendingMessageRepository) Restore(ctx context.Context) error {
	payload, err := r.store.Load(ctx, persistence.KeyPendingMessages)
	if err != nil {
		return err
	}

	if payload == nil {
		return nil
	}

	var saved []*models.PendingMessage
	if err := json.Unmarshal(payload, &saved); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = make(map[string]*models.PendingMessage, len(saved))
	r.order = make([]string, 0, len(saved))

	for _, msg := range saved {
		key := msg.Key().String()
		r.messages[key] = msg
		r.order = append(r.order, key)
	}

	r.logger.Info("Непрочитанные сообщения восстановлены",
		"count", len(saved))

	return nil
}

func (r *PendingMessageRepository) Add(ctx context.Context, msg *models.PendingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneMessage(msg)
	key := stored.Key().String()

	if _, exists := r.messages[key]; !exists {
		r.order = append(r.order, key)
	}

	r.messages[key] = stored

	r.flush(ctx)

	return nil
}

// RemoveAllForConversation удаляет все сообщения чата и возвращает их число.
func (r *PendingMessageRepository) RemoveAllForConversation(ctx context.Context, chatID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	remaining := make([]string, 0, len(r.order))

	for _, key := range r.order {
		msg, exists := r.messages[key]
		if !exists {
			continue
		}

		if msg.ChatID == chatID {
			delete(r.messages, key)

			removed++

			continue
		}

		remaining = append(remaining, key)
	}

	r.order = remaining

	if removed > 0 {
		r.flush(ctx)
	}

	return removed, nil
}

// All возвращает копии всех сообщений в порядке вставки.
func (r *PendingMessageRepository) All(ctx context.Context) []*models.PendingMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.PendingMessage, 0, len(r.order))

	for _, key := range r.order {
		if msg, exists := r.messages[key]; exists {
			result = append(result, cloneMessage(msg))
		}
	}

	return result
}

func (r *PendingMessageRepository) FindByConversation(ctx context.Context, chatID int64) []*models.PendingMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.PendingMessage, 0)

	for _, key := range r.order {
		msg, exists := r.messages[key]
		if exists && msg.ChatID == chatID {
			result = append(result, cloneMessage(msg))
		}
	}

	return result
}

// SetTier повышает воронку сообщения. Попытка понизить игнорируется.
func (r *PendingMessageRepository) SetTier(ctx context.Context, key models.MessageKey, tier int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, exists := r.messages[key.String()]
	if !exists {
		return &errors.ErrMessageNotFound{Key: key.String()}
	}

	if tier <= msg.CurrentTier {
		return nil
	}

	msg.CurrentTier = tier

	r.flush(ctx)

	return nil
}

func (r *PendingMessageRepository) MarkTierNotified(ctx context.Context, key models.MessageKey, tier int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, exists := r.messages[key.String()]
	if !exists {
		return &errors.ErrMessageNotFound{Key: key.String()}
	}

	if msg.WasNotified(tier) {
		return nil
	}

	msg.TiersNotified = append(msg.TiersNotified, tier)

	r.flush(ctx)

	return nil
}

func (r *PendingMessageRepository) ClearAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.messages)
	r.messages = make(map[string]*models.PendingMessage)
	r.order = nil

	r.flush(ctx)

	return count, nil
}

func (r *PendingMessageRepository) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.messages)
}

// flush сохраняет снимок в StateStore. Ошибка записи не прерывает
// операцию: состояние в памяти остаётся источником истины.
// Вызывается только под mu.
func (r *PendingMessageRepository) flush(ctx context.Context) {
	snapshot := make([]*models.PendingMessage, 0, len(r.order))

	for _, key := range r.order {
		if msg, exists := r.messages[key]; exists {
			snapshot = append(snapshot, msg)
		}
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		r.logger.Error("Не удалось сериализовать непрочитанные сообщения",
			"error", err)
		return
	}

	if err := r.store.Save(ctx, persistence.KeyPendingMessages, payload); err != nil {
		r.logger.Error("Не удалось сохранить непрочитанные сообщения",
			"error", err)
	}
}

func cloneMessage(msg *models.PendingMessage) *models.PendingMessage {
	clone := *msg
	clone.TiersNotified = append([]int(nil), msg.TiersNotified...)

	return &clone
}
