package persistence_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/config"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/database"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/infrastructure/persistence"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*database.PostgresDB, func()) {
	t.Helper()

	dbName := "testdb"
	dbUser := "testuser"
	dbPassword := "testpassword"

	container, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(10*time.Second),
		),
	)
	require.NoError(t, err, "Не удалось запустить контейнер postgres")

	host, err := container.Host(ctx)
	require.NoError(t, err, "Не удалось получить хост контейнера")

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err, "Не удалось получить порт контейнера")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, host, port.Port(), dbName)

	migrationsPath, _ := filepath.Abs("../../../migrations")
	migrateURL := fmt.Sprintf("file://%s", migrationsPath)

	m, err := migrate.New(migrateURL, dsn)
	require.NoError(t, err, "Не удалось создать экземпляр migrate")

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("Не удалось применить миграции: %v", err)
	}

	sourceErr, dbErr := m.Close()
	require.NoError(t, sourceErr, "Ошибка закрытия источника миграций")
	require.NoError(t, dbErr, "Ошибка закрытия подключения БД миграций")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	testCfg := &config.Config{
		DatabaseURL:     dsn,
		DatabaseMaxConn: 5,
	}

	db, err := database.NewPostgresDB(ctx, testCfg, logger)
	require.NoError(t, err, "Не удалось подключиться к тестовой БД")

	cleanup := func() {
		db.Close()

		if err := container.Terminate(ctx); err != nil {
			t.Logf("Не удалось остановить контейнер postgres: %v", err)
		}
	}

	return db, cleanup
}

func TestPostgresStateStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	ctx := context.Background()
	db, cleanup := setupTestDatabase(ctx, t)

	defer cleanup()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := persistence.NewPostgresStateStore(db, logger)

	t.Run("Load возвращает nil для отсутствующего ключа", func(t *testing.T) {
		payload, err := store.Load(ctx, persistence.KeyNotificationState)
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("Save и Load возвращают сохранённые данные", func(t *testing.T) {
		original := []byte(`{"active_message_ids":[101,102],"last_published_at":"2025-01-10T12:00:00Z"}`)

		err := store.Save(ctx, persistence.KeyNotificationState, original)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, persistence.KeyNotificationState)
		require.NoError(t, err)
		assert.JSONEq(t, string(original), string(loaded))
	})

	t.Run("Save обновляет значение по существующему ключу", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, persistence.KeyWorkChat, []byte(`{"chat_id":-100}`)))
		require.NoError(t, store.Save(ctx, persistence.KeyWorkChat, []byte(`{"chat_id":-200}`)))

		loaded, err := store.Load(ctx, persistence.KeyWorkChat)
		require.NoError(t, err)
		assert.JSONEq(t, `{"chat_id":-200}`, string(loaded))
	})
}
