package notify_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/notify"
)

func testFunnels() *models.FunnelConfig {
	return &models.FunnelConfig{
		Thresholds:     map[int]int{1: 60, 2: 180, 3: 300},
		StrictSequence: true,
	}
}

func TestComposer_EmptyStore(t *testing.T) {
	composer := notify.NewComposer(time.UTC)

	report := composer.Compose(nil, testFunnels(), time.Now())

	t.Run("Все воронки присутствуют с пометкой об отсутствии", func(t *testing.T) {
		assert.Contains(t, report, "Воронка 1")
		assert.Contains(t, report, "Воронка 2")
		assert.Contains(t, report, "Воронка 3")
		assert.Equal(t, 3, strings.Count(report, "— нет"))
	})

	assert.Contains(t, report, "сообщений 0, чатов 0")
}

func TestComposer_ConversationInHighestTierOnly(t *testing.T) {
	composer := notify.NewComposer(time.UTC)
	now := time.Now()

	snapshot := []*models.PendingMessage{
		{
			ChatID:      -1,
			UserID:      10,
			MessageID:   100,
			Text:        "Первый вопрос",
			ChatTitle:   "Клиенты Карго",
			FirstSeenAt: now.Add(-4 * time.Hour),
			CurrentTier: 2,
		},
		{
			ChatID:      -1,
			UserID:      10,
			MessageID:   101,
			Text:        "Второй вопрос",
			ChatTitle:   "Клиенты Карго",
			FirstSeenAt: now.Add(-90 * time.Minute),
			CurrentTier: 1,
		},
	}

	report := composer.Compose(snapshot, testFunnels(), now)

	assert.Equal(t, 1, strings.Count(report, "Клиенты Карго"),
		"Чат должен появиться ровно в одной воронке")

	lines := strings.Split(report, "\n")
	tier2Index := -1
	chatIndex := -1

	for i, line := range lines {
		if strings.Contains(line, "Воронка 2") {
			tier2Index = i
		}

		if strings.Contains(line, "Клиенты Карго") {
			chatIndex = i
		}
	}

	require.Positive(t, tier2Index)
	assert.Greater(t, chatIndex, tier2Index, "Чат должен стоять в своей максимальной воронке")

	t.Run("Счётчик и возраст считаются по всем сообщениям чата", func(t *testing.T) {
		assert.Contains(t, report, "Сообщений: 2")
		assert.Contains(t, report, "4ч 0м назад")
	})

	t.Run("Воронки 1 и 3 пустые", func(t *testing.T) {
		assert.Equal(t, 2, strings.Count(report, "— нет"))
	})
}

func TestComposer_OrderFollowsSnapshot(t *testing.T) {
	composer := notify.NewComposer(time.UTC)
	now := time.Now()

	snapshot := []*models.PendingMessage{
		{ChatID: -1, UserID: 1, MessageID: 1, ChatTitle: "Первый чат", FirstSeenAt: now.Add(-2 * time.Hour), CurrentTier: 1},
		{ChatID: -2, UserID: 2, MessageID: 2, ChatTitle: "Второй чат", FirstSeenAt: now.Add(-90 * time.Minute), CurrentTier: 1},
	}

	report := composer.Compose(snapshot, testFunnels(), now)

	first := strings.Index(report, "Первый чат")
	second := strings.Index(report, "Второй чат")

	require.Positive(t, first)
	require.Positive(t, second)
	assert.Less(t, first, second)
	assert.Contains(t, report, "1. 💬 Первый чат")
	assert.Contains(t, report, "2. 💬 Второй чат")
}

func TestComposer_DisplayNameFallback(t *testing.T) {
	composer := notify.NewComposer(time.UTC)
	now := time.Now()

	snapshot := []*models.PendingMessage{
		{ChatID: -1, UserID: 1, MessageID: 1, Username: "ivan", FirstSeenAt: now.Add(-time.Hour), CurrentTier: 1},
		{ChatID: -2, UserID: 2, MessageID: 2, FirstName: "Пётр", FirstSeenAt: now.Add(-time.Hour), CurrentTier: 1},
		{ChatID: -3, UserID: 3, MessageID: 3, FirstSeenAt: now.Add(-time.Hour), CurrentTier: 1},
	}

	report := composer.Compose(snapshot, testFunnels(), now)

	assert.Contains(t, report, "👤 @ivan")
	assert.Contains(t, report, "👤 Пётр")
	assert.Contains(t, report, "💬 Чат -3")
}

func TestComposer_BurstBeforeFirstThresholdGroupsIntoOneLine(t *testing.T) {
	composer := notify.NewComposer(time.UTC)
	now := time.Now()

	snapshot := []*models.PendingMessage{
		{ChatID: -1, UserID: 1, MessageID: 1, ChatTitle: "Свежий чат", FirstSeenAt: now.Add(-50 * time.Second), CurrentTier: 0},
		{ChatID: -1, UserID: 1, MessageID: 2, ChatTitle: "Свежий чат", FirstSeenAt: now.Add(-40 * time.Second), CurrentTier: 0},
		{ChatID: -1, UserID: 2, MessageID: 3, ChatTitle: "Свежий чат", FirstSeenAt: now.Add(-30 * time.Second), CurrentTier: 0},
	}

	report := composer.Compose(snapshot, testFunnels(), now)

	assert.Equal(t, 3, strings.Count(report, "— нет"))
	assert.Contains(t, report, "Вне воронок")
	assert.Equal(t, 1, strings.Count(report, "💬 Свежий чат"))
	assert.Contains(t, report, "📝 Сообщений: 3")
	assert.Contains(t, report, "сообщений 3, чатов 1")
}

func TestComposer_UnclassifiedNotInBuckets(t *testing.T) {
	composer := notify.NewComposer(time.UTC)
	now := time.Now()

	snapshot := []*models.PendingMessage{
		{ChatID: -1, UserID: 1, MessageID: 1, ChatTitle: "Свежий чат", FirstSeenAt: now.Add(-30 * time.Second), CurrentTier: 0},
	}

	report := composer.Compose(snapshot, testFunnels(), now)

	assert.Equal(t, 3, strings.Count(report, "— нет"))
	assert.Contains(t, report, "Вне воронок")
	assert.Contains(t, report, "1. 💬 Свежий чат")
	assert.Contains(t, report, "сообщений 1, чатов 1")
}

func TestComposer_TotalsAndTimestamp(t *testing.T) {
	location, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	composer := notify.NewComposer(location)
	now := time.Date(2025, 3, 10, 12, 30, 15, 0, time.UTC)

	snapshot := []*models.PendingMessage{
		{ChatID: -1, UserID: 1, MessageID: 1, ChatTitle: "Чат", FirstSeenAt: now.Add(-time.Hour), CurrentTier: 1},
		{ChatID: -1, UserID: 2, MessageID: 2, ChatTitle: "Чат", FirstSeenAt: now.Add(-time.Hour), CurrentTier: 1},
		{ChatID: -2, UserID: 3, MessageID: 3, ChatTitle: "Другой", FirstSeenAt: now.Add(-90 * time.Minute), CurrentTier: 1},
	}

	report := composer.Compose(snapshot, testFunnels(), now)

	assert.Contains(t, report, "сообщений 3, чатов 2")
	assert.Contains(t, report, "10.03.2025 15:30:15", "Время отчёта в часовом поясе компании")
}
