package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/database"
	customerrors "github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/errors"
)

// PostgresStateStore хранит разделы состояния в таблице engine_state.
type PostgresStateStore struct {
	db     *database.PostgresDB
	sq     sq.StatementBuilderType
	logger *slog.Logger
}

func NewPostgresStateStore(db *database.PostgresDB, logger *slog.Logger) *PostgresStateStore {
	return &PostgresStateStore{
		db:     db,
		sq:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
}

func (s *PostgresStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	selectQuery := s.sq.Select("payload").
		From("engine_state").
		Where(sq.Eq{"key": key})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "получение состояния", Cause: err}
	}

	var payload []byte

	err = s.db.Pool.QueryRow(ctx, query, args...).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "получение состояния", Cause: err}
	}

	return payload, nil
}

func (s *PostgresStateStore) Save(ctx context.Context, key string, payload []byte) error {
	upsertQuery := s.sq.Insert("engine_state").
		Columns("key", "payload", "updated_at").
		Values(key, payload, time.Now()).
		Suffix("ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at")

	query, args, err := upsertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение состояния", Cause: err}
	}

	if _, err := s.db.Pool.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение состояния", Cause: err}
	}

	return nil
}

func (s *PostgresStateStore) Close() error {
	s.db.Close()
	return nil
}
