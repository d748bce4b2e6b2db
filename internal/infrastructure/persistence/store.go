package persistence

import "context"

// Ключи разделов состояния. Каждый раздел хранится отдельным
// JSON-документом, как и в первоначальной версии бота.
const (
	KeyPendingMessages   = "pending_messages"
	KeyFunnelsConfig     = "funnels_config"
	KeyNotificationState = "notification_state"
	KeyWorkChat          = "work_chat"
	KeyAutoReplyFlags    = "auto_reply_flags"
	KeyExcludedUsers     = "excluded_users"
)

// StateStore — контракт долговременного хранилища состояния движка.
// Load возвращает nil без ошибки, если раздел ещё не сохранялся.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, error)

	Save(ctx context.Context, key string, payload []byte) error

	Close() error
}
