package notify_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	clientmocks "github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/clients/mocks"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/repositories/memory"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/notify"
)

const workChatID = int64(-100500)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDispatcher(t *testing.T, transport *clientmocks.ReportTransport, cooldown time.Duration) (*notify.Dispatcher, *memory.PendingMessageRepository) {
	t.Helper()

	logger := newTestLogger()

	store, err := persistence.NewFileStateStore(t.TempDir(), logger)
	require.NoError(t, err)

	repo := memory.NewPendingMessageRepository(store, logger)
	composer := notify.NewComposer(time.UTC)

	return notify.NewDispatcher(transport, repo, composer, store, cooldown, logger), repo
}

func addPending(t *testing.T, repo *memory.PendingMessageRepository, chatID int64, tier int, age time.Duration) *models.PendingMessage {
	t.Helper()

	ctx := context.Background()
	msg := &models.PendingMessage{
		ChatID:      chatID,
		UserID:      1,
		MessageID:   chatID * -1,
		Text:        "Добрый день, есть вопрос",
		FirstSeenAt: time.Now().Add(-age),
	}

	require.NoError(t, repo.Add(ctx, msg))

	if tier > 0 {
		require.NoError(t, repo.SetTier(ctx, msg.Key(), tier))
	}

	return msg
}

func TestDispatcher_PublishesAndRecordsHandle(t *testing.T) {
	ctx := context.Background()
	transport := new(clientmocks.ReportTransport)
	dispatcher, repo := newDispatcher(t, transport, 5*time.Minute)

	addPending(t, repo, -1, 1, 10*time.Minute)

	transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
		Return(int64(900), nil).Once()

	result := dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false)
	assert.Equal(t, notify.PublishDone, result)

	state := dispatcher.State()
	assert.Equal(t, []int64{900}, state.ActiveMessageIDs)
	assert.False(t, state.LastPublishedAt.IsZero())

	t.Run("Воронка сообщения отмечена как опубликованная", func(t *testing.T) {
		all := repo.All(ctx)
		require.Len(t, all, 1)
		assert.True(t, all[0].WasNotified(1))
	})

	transport.AssertExpectations(t)
}

func TestDispatcher_CooldownSkipsAndForceBypasses(t *testing.T) {
	ctx := context.Background()
	transport := new(clientmocks.ReportTransport)
	dispatcher, repo := newDispatcher(t, transport, time.Hour)

	addPending(t, repo, -1, 1, 10*time.Minute)

	transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
		Return(int64(900), nil).Once()

	require.Equal(t, notify.PublishDone, dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false))

	t.Run("Повторная публикация в кулдауне пропускается", func(t *testing.T) {
		result := dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false)
		assert.Equal(t, notify.PublishSkippedCooldown, result)
	})

	t.Run("force обходит кулдаун и заменяет отчёт", func(t *testing.T) {
		transport.On("DeleteMessage", mock.Anything, workChatID, int64(900)).
			Return(nil).Once()
		transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
			Return(int64(901), nil).Once()

		result := dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), true)
		assert.Equal(t, notify.PublishDone, result)

		state := dispatcher.State()
		assert.Equal(t, []int64{901}, state.ActiveMessageIDs)
	})

	transport.AssertExpectations(t)
}

func TestDispatcher_DeleteFailureDoesNotBlockPublish(t *testing.T) {
	ctx := context.Background()
	transport := new(clientmocks.ReportTransport)
	dispatcher, repo := newDispatcher(t, transport, 0)

	addPending(t, repo, -1, 1, 10*time.Minute)

	transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
		Return(int64(900), nil).Once()
	require.Equal(t, notify.PublishDone, dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false))

	deleteErr := &errors.ErrDeleteReport{ChatID: workChatID, MessageID: 900}
	transport.On("DeleteMessage", mock.Anything, workChatID, int64(900)).
		Return(deleteErr).Once()
	transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
		Return(int64(901), nil).Once()

	result := dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false)
	assert.Equal(t, notify.PublishDone, result)

	// Неудалённый отчёт остаётся в учёте и будет удалён в следующий раз.
	state := dispatcher.State()
	assert.Equal(t, []int64{900, 901}, state.ActiveMessageIDs)

	transport.AssertExpectations(t)
}

func TestDispatcher_SendFailureKeepsCooldownOpen(t *testing.T) {
	ctx := context.Background()
	transport := new(clientmocks.ReportTransport)
	dispatcher, repo := newDispatcher(t, transport, time.Hour)

	addPending(t, repo, -1, 1, 10*time.Minute)

	sendErr := &errors.ErrSendReport{ChatID: workChatID}
	transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
		Return(int64(0), sendErr).Once()

	result := dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false)
	assert.Equal(t, notify.PublishFailed, result)

	state := dispatcher.State()
	assert.True(t, state.LastPublishedAt.IsZero(), "Неудачная отправка не должна сдвигать кулдаун")
	assert.Empty(t, state.ActiveMessageIDs)

	t.Run("Следующий тик публикует без ожидания кулдауна", func(t *testing.T) {
		transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
			Return(int64(902), nil).Once()

		result := dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false)
		assert.Equal(t, notify.PublishDone, result)
	})

	transport.AssertExpectations(t)
}

func TestDispatcher_NoWorkChat(t *testing.T) {
	ctx := context.Background()
	transport := new(clientmocks.ReportTransport)
	dispatcher, _ := newDispatcher(t, transport, time.Minute)

	result := dispatcher.MaybePublish(ctx, 0, models.DefaultFunnels(), true)
	assert.Equal(t, notify.PublishSkippedNoChat, result)

	transport.AssertNotCalled(t, "SendReport")
}

func TestDispatcher_HistoryTrimmed(t *testing.T) {
	ctx := context.Background()
	transport := new(clientmocks.ReportTransport)
	dispatcher, repo := newDispatcher(t, transport, 0)

	addPending(t, repo, -1, 1, 10*time.Minute)

	deleteErr := &errors.ErrDeleteReport{ChatID: workChatID}

	// Удаление всегда падает: учёт копит ID, но не более трёх.
	transport.On("DeleteMessage", mock.Anything, workChatID, mock.AnythingOfType("int64")).
		Return(deleteErr)

	for i := int64(0); i < 5; i++ {
		transport.On("SendReport", mock.Anything, workChatID, mock.AnythingOfType("string")).
			Return(int64(900+i), nil).Once()

		require.Equal(t, notify.PublishDone, dispatcher.MaybePublish(ctx, workChatID, models.DefaultFunnels(), false))
	}

	state := dispatcher.State()
	assert.Len(t, state.ActiveMessageIDs, models.MaxActiveReports)
	assert.Equal(t, int64(904), state.ActiveMessageIDs[len(state.ActiveMessageIDs)-1])
}
