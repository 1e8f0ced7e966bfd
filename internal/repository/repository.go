package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/tracking-links/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS link_history (
		id                 BIGSERIAL PRIMARY KEY,
		run_id             TEXT        NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL,
		tracking_link_name TEXT        NOT NULL,
		short_link         TEXT        NOT NULL,
		long_link          TEXT        NOT NULL,
		response_data      TEXT        NOT NULL
	)
`

type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// запуски последовательные, большой пул не нужен
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Migrate создаёт таблицу журнала, если её нет
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("failed to migrate link_history: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}
