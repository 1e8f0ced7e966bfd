package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/tracking-links/internal/models"
)

// HistoryHeaders заголовки листа "Links History"
var HistoryHeaders = []string{"Date", "Tracking Link Name", "Short Link", "Long Link", "Response Data"}

// HistoryRepository журнал созданных ссылок: записи только добавляются, никогда не изменяются
type HistoryRepository interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	// List возвращает последние limit записей, новые первыми
	List(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

type sheetHistoryRepository struct {
	store SheetStore
}

// NewSheetHistoryRepository журнал на листе "Links History"
func NewSheetHistoryRepository(store SheetStore) HistoryRepository {
	return &sheetHistoryRepository{store: store}
}

func (r *sheetHistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	last, err := r.store.LastRow(SheetLinksHistory)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	if last == 0 {
		headers := make([]any, len(HistoryHeaders))
		for i, h := range HistoryHeaders {
			headers[i] = h
		}
		if err := r.store.SetRow(SheetLinksHistory, "A1", headers); err != nil {
			return fmt.Errorf("failed to write history headers: %w", err)
		}
		last = 1
	}

	cell := fmt.Sprintf("A%d", last+1)
	values := []any{
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.TrackingLinkName,
		entry.ShortLink,
		entry.LongLink,
		entry.ResponseData,
	}
	if err := r.store.SetRow(SheetLinksHistory, cell, values); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	entry.ID = int64(last) // номер строки данных
	return nil
}

func (r *sheetHistoryRepository) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	rows, err := r.store.Rows(SheetLinksHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0)
	for i := len(rows) - 1; i >= 1; i-- {
		if limit > 0 && len(entries) >= limit {
			break
		}
		row := models.Row{Index: i + 1, Values: rows[i]}
		if row.IsBlank() {
			continue
		}
		createdAt, _ := time.Parse(time.RFC3339, row.Value(0))
		entries = append(entries, models.HistoryEntry{
			ID:               int64(i),
			CreatedAt:        createdAt,
			TrackingLinkName: row.Value(1),
			ShortLink:        row.Value(2),
			LongLink:         row.Value(3),
			ResponseData:     row.Value(4),
		})
	}
	return entries, nil
}

type postgresHistoryRepository struct {
	db *PostgresDB
}

// NewPostgresHistoryRepository журнал в таблице link_history
func NewPostgresHistoryRepository(db *PostgresDB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (r *postgresHistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO link_history (run_id, created_at, tracking_link_name, short_link, long_link, response_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		entry.RunID,
		entry.CreatedAt,
		entry.TrackingLinkName,
		entry.ShortLink,
		entry.LongLink,
		entry.ResponseData,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

func (r *postgresHistoryRepository) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, run_id, created_at, tracking_link_name, short_link, long_link, response_data
		FROM link_history
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.CreatedAt, &e.TrackingLinkName, &e.ShortLink, &e.LongLink, &e.ResponseData); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

type multiHistoryRepository struct {
	primary HistoryRepository
	mirrors []HistoryRepository
}

// NewMultiHistoryRepository пишет в primary, затем дублирует в mirrors.
// Ошибка primary прерывает запись; ошибки зеркал возвращаются, но запись в primary уже сделана.
func NewMultiHistoryRepository(primary HistoryRepository, mirrors ...HistoryRepository) HistoryRepository {
	return &multiHistoryRepository{primary: primary, mirrors: mirrors}
}

func (r *multiHistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	if err := r.primary.Append(ctx, entry); err != nil {
		return err
	}
	for _, m := range r.mirrors {
		mirrored := *entry
		if err := m.Append(ctx, &mirrored); err != nil {
			return fmt.Errorf("history mirror: %w", err)
		}
	}
	return nil
}

// List читает из последнего зеркала (Postgres, если подключён), иначе из primary
func (r *multiHistoryRepository) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if len(r.mirrors) > 0 {
		return r.mirrors[len(r.mirrors)-1].List(ctx, limit)
	}
	return r.primary.List(ctx, limit)
}
