package models

import "time"

// NotificationState — учёт публикаций сводного отчёта в рабочем чате.
type NotificationState struct {
	// ActiveMessageIDs — ID ранее опубликованных отчётов, свежие в конце.
	// Перед новой публикацией старые удаляются из чата.
	ActiveMessageIDs []int64   `json:"active_message_ids"`
	LastPublishedAt  time.Time `json:"last_published_at"`
}

// MaxActiveReports ограничивает историю ID отчётов.
const MaxActiveReports = 3

func (s *NotificationState) RecordPublished(messageID int64, at time.Time) {
	s.ActiveMessageIDs = append(s.ActiveMessageIDs, messageID)
	if len(s.ActiveMessageIDs) > MaxActiveReports {
		s.ActiveMessageIDs = s.ActiveMessageIDs[len(s.ActiveMessageIDs)-MaxActiveReports:]
	}

	s.LastPublishedAt = at
}

func (s *NotificationState) ClearActive() {
	s.ActiveMessageIDs = nil
}
