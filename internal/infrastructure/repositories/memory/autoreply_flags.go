package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
)

// AutoReplyFlags помнит, кому уже отправлен автоответ в нерабочее время,
// чтобы не отвечать повторно на каждое сообщение.
// Флаг снимается при первом сообщении в рабочее время.
type AutoReplyFlags struct {
	flags  map[string]bool
	store  persistence.StateStore
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewAutoReplyFlags(store persistence.StateStore, logger *slog.Logger) *AutoReplyFlags {
	return &AutoReplyFlags{
		flags:  make(map[string]bool),
		store:  store,
		logger: logger,
	}
}

func (f *AutoReplyFlags) Restore(ctx context.Context) error {
	payload, err := f.store.Load(ctx, persistence.KeyAutoReplyFlags)
	if err != nil {
		return err
	}

	if payload == nil {
		return nil
	}

	var saved map[string]bool
	if err := json.Unmarshal(payload, &saved); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.flags = saved

	return nil
}

func (f *AutoReplyFlags) HasReplied(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.flags[key]
}

func (f *AutoReplyFlags) SetReplied(ctx context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.flags[key] = true

	f.flush(ctx)
}

func (f *AutoReplyFlags) ClearReplied(ctx context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.flags[key]; !exists {
		return
	}

	delete(f.flags, key)

	f.flush(ctx)
}

func (f *AutoReplyFlags) ClearAll(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.flags = make(map[string]bool)

	f.flush(ctx)
}

func (f *AutoReplyFlags) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.flags)
}

// Вызывается только под mu.
func (f *AutoReplyFlags) flush(ctx context.Context) {
	payload, err := json.Marshal(f.flags)
	if err != nil {
		f.logger.Error("Не удалось сериализовать флаги автоответа",
			"error", err)
		return
	}

	if err := f.store.Save(ctx, persistence.KeyAutoReplyFlags, payload); err != nil {
		f.logger.Error("Не удалось сохранить флаги автоответа",
			"error", err)
	}
}
