package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStateStore хранит разделы состояния как строки engine:<key>.
// TTL не используется: состояние живёт до явной перезаписи.
type RedisStateStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisStateStore(redisURL, password string, db int, logger *slog.Logger) (*RedisStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка при подключении к Redis: %w", err)
	}

	logger.Info("Соединение с Redis успешно установлено")

	return &RedisStateStore{
		client: client,
		logger: logger,
	}, nil
}

func (s *RedisStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}

		s.logger.Error("Ошибка при получении состояния из Redis",
			"error", err,
			"key", key,
		)

		return nil, fmt.Errorf("ошибка при получении состояния из Redis: %w", err)
	}

	return data, nil
}

func (s *RedisStateStore) Save(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, redisKey(key), payload, 0).Err(); err != nil {
		s.logger.Error("Ошибка при сохранении состояния в Redis",
			"error", err,
			"key", key,
		)

		return fmt.Errorf("ошибка при сохранении состояния в Redis: %w", err)
	}

	return nil
}

func (s *RedisStateStore) Close() error {
	return s.client.Close()
}

func redisKey(key string) string {
	return "engine:" + key
}
