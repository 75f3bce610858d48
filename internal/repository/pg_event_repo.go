package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petflix/notifier/internal/domain"
)

type pgEventRepository struct {
	pool *pgxpool.Pool
}

// NewPgEventRepository returns an EventRepository backed by PostgreSQL.
func NewPgEventRepository(pool *pgxpool.Pool) EventRepository {
	return &pgEventRepository{pool: pool}
}

func (r *pgEventRepository) Create(ctx context.Context, e *domain.QueuedEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_events (id, user_id, type, payload, created_at, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.UserID, e.Type, e.Payload, e.CreatedAt, e.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *pgEventRepository) GetByID(ctx context.Context, id string) (*domain.QueuedEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, type, payload, created_at, sent_at
		FROM notification_events WHERE id = $1`, id)

	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return e, err
}

func (r *pgEventRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.QueuedEvent, int, error) {
	where, args := buildListWhere(f)
	offset := (f.Page - 1) * f.Limit

	// Count total matching rows for pagination metadata.
	var total int
	countQuery := "SELECT COUNT(*) FROM notification_events" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	// Append pagination args after the WHERE args.
	args = append(args, f.Limit, offset)
	limitPlaceholder := fmt.Sprintf("$%d", len(args)-1)
	offsetPlaceholder := fmt.Sprintf("$%d", len(args))

	query := fmt.Sprintf(`
		SELECT id, user_id, type, payload, created_at, sent_at
		FROM notification_events%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s`, where, limitPlaceholder, offsetPlaceholder)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	return events, total, err
}

func (r *pgEventRepository) FindPending(ctx context.Context, cutoff time.Time) ([]*domain.QueuedEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, payload, created_at, sent_at
		FROM notification_events
		WHERE sent_at IS NULL
		  AND created_at <= $1
		ORDER BY created_at ASC
		LIMIT 5000`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find pending events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *pgEventRepository) MarkSent(ctx context.Context, ids []string, sentAt time.Time) error {
	// The sent_at IS NULL guard keeps a lost race with another processor
	// instance from rewriting an already-stamped row.
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_events
		SET sent_at = $1
		WHERE id = ANY($2) AND sent_at IS NULL`, sentAt, ids)
	if err != nil {
		return fmt.Errorf("mark events sent: %w", err)
	}
	return nil
}

func (r *pgEventRepository) CountPending(ctx context.Context) (map[domain.EventType]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT type, COUNT(*)
		FROM notification_events
		WHERE sent_at IS NULL
		GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count pending events: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EventType]int)
	for rows.Next() {
		var t domain.EventType
		var c int
		if err := rows.Scan(&t, &c); err != nil {
			return nil, err
		}
		counts[t] = c
	}
	return counts, rows.Err()
}

func (r *pgEventRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notification_events
		WHERE sent_at IS NOT NULL AND sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete sent events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---- helpers ----

// scanEvent reads a single event row from any pgx row type.
func scanEvent(row pgx.Row) (*domain.QueuedEvent, error) {
	var e domain.QueuedEvent
	err := row.Scan(&e.ID, &e.UserID, &e.Type, &e.Payload, &e.CreatedAt, &e.SentAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.QueuedEvent, error) {
	var result []*domain.QueuedEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// buildListWhere builds a parameterised WHERE clause from a ListFilter.
func buildListWhere(f domain.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, val any) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if f.Status != nil {
		if *f.Status == domain.StatusPending {
			conditions = append(conditions, "sent_at IS NULL")
		} else {
			conditions = append(conditions, "sent_at IS NOT NULL")
		}
	}
	if f.Type != nil {
		add("type = $%d", *f.Type)
	}
	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
