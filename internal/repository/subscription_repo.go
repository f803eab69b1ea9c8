package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

// uniqueViolation is the PostgreSQL error code raised when two concurrent
// subscribes race past the existence check and both insert; the partial
// unique index on (product_id, email) WHERE status = 'ACTIVE' rejects the
// loser.
const uniqueViolation = "23505"

// SubscriptionRepository handles data access for subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Subscribe creates or reactivates the subscription for (productID, email).
// Semantics:
//   - no prior row: insert a new ACTIVE row carrying token; isNew = true
//   - prior UNSUBSCRIBED row: flip it back to ACTIVE, keeping its original
//     token (the emailed links stay valid); isNew = true
//   - prior ACTIVE row: returned unchanged with isNew = false
//
// Rows are never deleted, so the pair's history survives for idempotency.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, productID, email, token string) (*models.Subscription, bool, error) {
	existing, err := r.getByPair(ctx, productID, email)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return nil, false, err
	}

	if existing != nil {
		if existing.IsActive() {
			return existing, false, nil
		}
		const reactivate = `
            UPDATE subscriptions
            SET status = 'ACTIVE', unsubscribed_at = NULL
            WHERE subscription_id = $1
            RETURNING *`
		var sub models.Subscription
		if err := r.db.GetContext(ctx, &sub, reactivate, existing.SubscriptionID); err != nil {
			return nil, false, err
		}
		return &sub, true, nil
	}

	const insert = `
        INSERT INTO subscriptions (subscription_id, product_id, email, status, unsubscribe_token)
        VALUES ($1, $2, $3, 'ACTIVE', $4)
        RETURNING *`
	var sub models.Subscription
	err = r.db.GetContext(ctx, &sub, insert, uuid.New().String(), productID, email, token)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			// Lost the race; the winner's row is the active subscription.
			winner, gErr := r.getByPair(ctx, productID, email)
			if gErr != nil {
				return nil, false, gErr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return &sub, true, nil
}

// getByPair returns the most recent subscription row for the pair, preferring
// an ACTIVE one.
func (r *SubscriptionRepository) getByPair(ctx context.Context, productID, email string) (*models.Subscription, error) {
	const q = `
        SELECT * FROM subscriptions
        WHERE product_id = $1 AND email = $2
        ORDER BY (status = 'ACTIVE') DESC, created_at DESC
        LIMIT 1`
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, q, productID, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// ActiveSubscribers returns every ACTIVE subscription for a product.
func (r *SubscriptionRepository) ActiveSubscribers(ctx context.Context, productID string) ([]models.Subscription, error) {
	const q = `
        SELECT * FROM subscriptions
        WHERE product_id = $1 AND status = 'ACTIVE'
        ORDER BY created_at`
	var subs []models.Subscription
	if err := r.db.SelectContext(ctx, &subs, q, productID); err != nil {
		return nil, err
	}
	return subs, nil
}

// GetByToken looks up a subscription by its unsubscribe token, or
// utils.ErrNotFound.
func (r *SubscriptionRepository) GetByToken(ctx context.Context, token string) (*models.Subscription, error) {
	const q = `SELECT * FROM subscriptions WHERE unsubscribe_token = $1 LIMIT 1`
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, q, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// MarkUnsubscribed flips an ACTIVE subscription to UNSUBSCRIBED by token.
// Returns the updated row, or the unchanged row when it was already inactive
// (the second call is success, not failure), or utils.ErrNotFound for an
// unknown token.
func (r *SubscriptionRepository) MarkUnsubscribed(ctx context.Context, token string) (*models.Subscription, bool, error) {
	const q = `
        UPDATE subscriptions
        SET status = 'UNSUBSCRIBED', unsubscribed_at = NOW()
        WHERE unsubscribe_token = $1 AND status = 'ACTIVE'
        RETURNING *`
	var sub models.Subscription
	err := r.db.GetContext(ctx, &sub, q, token)
	if err == nil {
		return &sub, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}
	// Nothing flipped: either the token is unknown or already inactive.
	existing, gErr := r.GetByToken(ctx, token)
	if gErr != nil {
		return nil, false, gErr
	}
	return existing, false, nil
}
