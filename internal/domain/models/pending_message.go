package models

import (
	"fmt"
	"time"
)

// MessageKey однозначно идентифицирует непрочитанное сообщение.
// Несколько сообщений одного пользователя в одном чате сосуществуют
// как отдельные записи.
type MessageKey struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	SeenAt    time.Time
}

func (k MessageKey) String() string {
	return fmt.Sprintf("%d_%d_%d_%d", k.ChatID, k.UserID, k.MessageID, k.SeenAt.UnixNano())
}

// PendingMessage — входящее сообщение, на которое менеджер ещё не ответил.
type PendingMessage struct {
	ChatID      int64     `json:"chat_id"`
	UserID      int64     `json:"user_id"`
	MessageID   int64     `json:"message_id"`
	Text        string    `json:"message_text"`
	ChatTitle   string    `json:"chat_title,omitempty"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	FirstSeenAt time.Time `json:"timestamp"`

	// CurrentTier меняет только классификатор, монотонно вверх.
	CurrentTier int `json:"current_funnel"`
	// TiersNotified пополняет только диспетчер после успешной публикации.
	TiersNotified []int `json:"funnels_sent"`
}

func (m *PendingMessage) Key() MessageKey {
	return MessageKey{
		ChatID:    m.ChatID,
		UserID:    m.UserID,
		MessageID: m.MessageID,
		SeenAt:    m.FirstSeenAt,
	}
}

func (m *PendingMessage) WasNotified(tier int) bool {
	for _, t := range m.TiersNotified {
		if t == tier {
			return true
		}
	}

	return false
}

// DisplayName возвращает отображаемое имя диалога: название чата,
// затем username, затем имя, затем ID чата.
func (m *PendingMessage) DisplayName() string {
	switch {
	case m.ChatTitle != "":
		return "💬 " + m.ChatTitle
	case m.Username != "":
		return "👤 @" + m.Username
	case m.FirstName != "":
		return "👤 " + m.FirstName
	default:
		return fmt.Sprintf("💬 Чат %d", m.ChatID)
	}
}
