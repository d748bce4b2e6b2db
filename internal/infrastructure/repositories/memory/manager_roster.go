package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
)

// ManagerRoster ведёт список менеджеров (исключений): их сообщения
// не попадают в воронки, а их ответ закрывает диалог.
// Пользователь считается менеджером по ID или по username.
type ManagerRoster struct {
	userIDs   map[int64]struct{}
	usernames map[string]struct{}
	store     persistence.StateStore
	logger    *slog.Logger
	mu        sync.RWMutex
}

type rosterSnapshot struct {
	UserIDs   []int64  `json:"user_ids"`
	Usernames []string `json:"usernames"`
}

func NewManagerRoster(store persistence.StateStore, logger *slog.Logger) *ManagerRoster {
	return &ManagerRoster{
		userIDs:   make(map[int64]struct{}),
		usernames: make(map[string]struct{}),
		store:     store,
		logger:    logger,
	}
}

func (r *ManagerRoster) Restore(ctx context.Context) error {
	payload, err := r.store.Load(ctx, persistence.KeyExcludedUsers)
	if err != nil {
		return err
	}

	if payload == nil {
		return nil
	}

	var saved rosterSnapshot
	if err := json.Unmarshal(payload, &saved); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.userIDs = make(map[int64]struct{}, len(saved.UserIDs))
	for _, id := range saved.UserIDs {
		r.userIDs[id] = struct{}{}
	}

	r.usernames = make(map[string]struct{}, len(saved.Usernames))
	for _, username := range saved.Usernames {
		r.usernames[normalizeUsername(username)] = struct{}{}
	}

	r.logger.Info("Список менеджеров восстановлен",
		"ids", len(r.userIDs),
		"usernames", len(r.usernames))

	return nil
}

// IsStaff проверяет пользователя по ID и username.
func (r *ManagerRoster) IsStaff(userID int64, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.userIDs[userID]; ok {
		return true
	}

	if username == "" {
		return false
	}

	_, ok := r.usernames[normalizeUsername(username)]

	return ok
}

func (r *ManagerRoster) AddID(ctx context.Context, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.userIDs[userID]; exists {
		return false
	}

	r.userIDs[userID] = struct{}{}

	r.flush(ctx)

	return true
}

func (r *ManagerRoster) AddUsername(ctx context.Context, username string) bool {
	normalized := normalizeUsername(username)
	if normalized == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usernames[normalized]; exists {
		return false
	}

	r.usernames[normalized] = struct{}{}

	r.flush(ctx)

	return true
}

func (r *ManagerRoster) RemoveID(ctx context.Context, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.userIDs[userID]; !exists {
		return false
	}

	delete(r.userIDs, userID)

	r.flush(ctx)

	return true
}

func (r *ManagerRoster) RemoveUsername(ctx context.Context, username string) bool {
	normalized := normalizeUsername(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usernames[normalized]; !exists {
		return false
	}

	delete(r.usernames, normalized)

	r.flush(ctx)

	return true
}

// List возвращает отсортированные ID и username менеджеров.
func (r *ManagerRoster) List() ([]int64, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.userIDs))
	for id := range r.userIDs {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	usernames := make([]string, 0, len(r.usernames))
	for username := range r.usernames {
		usernames = append(usernames, username)
	}

	sort.Strings(usernames)

	return ids, usernames
}

func (r *ManagerRoster) ClearAll(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.userIDs) + len(r.usernames)
	r.userIDs = make(map[int64]struct{})
	r.usernames = make(map[string]struct{})

	r.flush(ctx)

	return count
}

// Вызывается только под mu.
func (r *ManagerRoster) flush(ctx context.Context) {
	snapshot := rosterSnapshot{
		UserIDs:   make([]int64, 0, len(r.userIDs)),
		Usernames: make([]string, 0, len(r.usernames)),
	}

	for id := range r.userIDs {
		snapshot.UserIDs = append(snapshot.UserIDs, id)
	}

	sort.Slice(snapshot.UserIDs, func(i, j int) bool { return snapshot.UserIDs[i] < snapshot.UserIDs[j] })

	for username := range r.usernames {
		snapshot.Usernames = append(snapshot.Usernames, username)
	}

	sort.Strings(snapshot.Usernames)

	payload, err := json.Marshal(snapshot)
	if err != nil {
		r.logger.Error("Не удалось сериализовать список менеджеров",
			"error", err)
		return
	}

	if err := r.store.Save(ctx, persistence.KeyExcludedUsers, payload); err != nil {
		r.logger.Error("Не удалось сохранить список менеджеров",
			"error", err)
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}
