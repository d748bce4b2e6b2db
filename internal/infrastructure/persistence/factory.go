package persistence

import (
	"context"
	"log/slog"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/config"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/database"
	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
)

type Factory struct {
	config *config.Config
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		config: cfg,
		logger: logger,
	}
}

func (f *Factory) CreateStateStore(ctx context.Context) (StateStore, error) {
	switch f.config.StorageAccessType {
	case config.FileStorage:
		f.logger.Info("Создание файлового хранилища состояния",
			"dir", f.config.StateDir,
		)

		return NewFileStateStore(f.config.StateDir, f.logger)
	case config.RedisStorage:
		f.logger.Info("Создание Redis хранилища состояния")

		return NewRedisStateStore(f.config.RedisURL, f.config.RedisPassword, f.config.RedisDB, f.logger)
	case config.PostgresStorage:
		f.logger.Info("Создание PostgreSQL хранилища состояния")

		db, err := database.NewPostgresDB(ctx, f.config, f.logger)
		if err != nil {
			return nil, err
		}

		return NewPostgresStateStore(db, f.logger), nil
	default:
		return nil, &errors.ErrUnknownStorageType{AccessType: string(f.config.StorageAccessType)}
	}
}
