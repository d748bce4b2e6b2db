package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/common"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
)

// conversationSummary агрегирует сообщения одного чата для отчёта.
type conversationSummary struct {
	display    string
	tier       int
	count      int
	oldestAt   time.Time
	sampleText string
	sampleFrom string
}

// Composer собирает единый сводный отчёт по всем непрочитанным
// сообщениям. Чистая функция над снимком хранилища: никакого I/O.
type Composer struct {
	location *time.Location
}

func NewComposer(location *time.Location) *Composer {
	return &Composer{location: location}
}

// Compose группирует сообщения по чатам, раскладывает чаты по воронкам
// (чат попадает ровно в одну, свою максимальную) и отрисовывает отчёт.
// Порядок внутри воронки повторяет порядок появления чатов в снимке.
func (c *Composer) Compose(snapshot []*models.PendingMessage, cfg *models.FunnelConfig, now time.Time) string {
	summaries := summarize(snapshot)

	buckets := make(map[int][]*conversationSummary)

	var unclassified []*conversationSummary

	for _, summary := range summaries {
		if summary.tier == 0 {
			unclassified = append(unclassified, summary)
			continue
		}

		buckets[summary.tier] = append(buckets[summary.tier], summary)
	}

	var b strings.Builder

	b.WriteString("📋 <b>СВОДКА ПО НЕПРОЧИТАННЫМ СООБЩЕНИЯМ</b>\n")

	for _, tier := range cfg.Tiers() {
		minutes, _ := cfg.Threshold(tier)

		fmt.Fprintf(&b, "\n%s <b>Воронка %d (без ответа %s):</b>\n",
			models.FunnelEmoji(tier), tier, common.FormatMinutes(minutes))

		writeConversations(&b, buckets[tier], now)
	}

	if len(unclassified) > 0 {
		b.WriteString("\n⏳ <b>Вне воронок (ждут первого порога):</b>\n")
		writeConversations(&b, unclassified, now)
	}

	totalMessages := len(snapshot)
	totalConversations := len(summaries)

	fmt.Fprintf(&b, "\n📊 Всего: сообщений %d, чатов %d\n", totalMessages, totalConversations)
	fmt.Fprintf(&b, "🕒 Обновлено: %s\n", now.In(c.location).Format("02.01.2006 15:04:05"))
	b.WriteString("💡 <i>Сводка обновляется автоматически и очищается после ответа менеджера</i>")

	return b.String()
}

func writeConversations(b *strings.Builder, conversations []*conversationSummary, now time.Time) {
	if len(conversations) == 0 {
		b.WriteString("— нет\n")
		return
	}

	for i, conv := range conversations {
		fmt.Fprintf(b, "%d. %s\n", i+1, conv.display)
		fmt.Fprintf(b, "   📝 Сообщений: %d\n", conv.count)
		fmt.Fprintf(b, "   ⏰ Самое старое: %s назад\n", common.FormatElapsed(now.Sub(conv.oldestAt)))

		if conv.sampleText != "" {
			fmt.Fprintf(b, "   💬 %s: %s\n", conv.sampleFrom, truncate(conv.sampleText, 50))
		}
	}
}

// summarize сворачивает снимок в список чатов в порядке их появления.
func summarize(snapshot []*models.PendingMessage) []*conversationSummary {
	byChat := make(map[int64]*conversationSummary)
	ordered := make([]*conversationSummary, 0)

	for _, msg := range snapshot {
		summary, exists := byChat[msg.ChatID]
		if !exists {
			summary = &conversationSummary{
				display:    msg.DisplayName(),
				oldestAt:   msg.FirstSeenAt,
				sampleText: msg.Text,
				sampleFrom: senderLabel(msg),
			}
			byChat[msg.ChatID] = summary
			ordered = append(ordered, summary)
		}

		summary.count++

		if msg.CurrentTier > summary.tier {
			summary.tier = msg.CurrentTier
		}

		if msg.FirstSeenAt.Before(summary.oldestAt) {
			summary.oldestAt = msg.FirstSeenAt
			summary.sampleText = msg.Text
			summary.sampleFrom = senderLabel(msg)
		}
	}

	return ordered
}

func senderLabel(msg *models.PendingMessage) string {
	if msg.Username != "" {
		return "@" + msg.Username
	}

	return fmt.Sprintf("ID: %d", msg.UserID)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}
