package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petflix/notifier/internal/domain"
)

type pgSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriptionRepository returns a SubscriptionRepository backed by PostgreSQL.
func NewPgSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &pgSubscriptionRepository{pool: pool}
}

func (r *pgSubscriptionRepository) Create(ctx context.Context, s *domain.PushSubscription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.UserID, s.Endpoint, s.P256dh, s.Auth, s.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "push_subscriptions_endpoint_key") {
			return domain.ErrDuplicateEndpoint
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *pgSubscriptionRepository) Revoke(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE push_subscriptions
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgSubscriptionRepository) ActiveByUser(ctx context.Context, userID string) ([]*domain.PushSubscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, created_at, revoked_at
		FROM push_subscriptions
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("find active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.PushSubscription
	for rows.Next() {
		var s domain.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt, &s.RevokedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
