package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

// UnsubscribeService deactivates subscriptions through their opaque tokens.
type UnsubscribeService struct {
	productStore ProductStore
	subStore     SubscriptionStore
}

// NewUnsubscribeService constructs an UnsubscribeService.
func NewUnsubscribeService(productStore ProductStore, subStore SubscriptionStore) *UnsubscribeService {
	return &UnsubscribeService{
		productStore: productStore,
		subStore:     subStore,
	}
}

// UnsubscribeResult reports the outcome of a token redemption.
type UnsubscribeResult struct {
	Subscription *models.Subscription
	ProductName  string

	// AlreadyInactive is true when the token was valid but the
	// subscription had been deactivated earlier. Redemption is idempotent.
	AlreadyInactive bool
}

// Unsubscribe deactivates the subscription identified by token. A repeat
// redemption of a valid token succeeds with AlreadyInactive set. An unknown
// token returns utils.ErrNotFound.
func (s *UnsubscribeService) Unsubscribe(ctx context.Context, token string) (*UnsubscribeResult, error) {
	if token == "" {
		return nil, utils.ErrNotFound
	}

	sub, flipped, err := s.subStore.MarkUnsubscribed(ctx, token)
	if err != nil {
		return nil, err
	}

	result := &UnsubscribeResult{
		Subscription:    sub,
		AlreadyInactive: !flipped,
		ProductName:     s.productName(ctx, sub.ProductID),
	}

	log.Info().
		Str("product_id", sub.ProductID).
		Str("email", sub.Email).
		Bool("already_inactive", result.AlreadyInactive).
		Msg("Unsubscribe processed")
	return result, nil
}

// productName is display-only; a lookup failure falls back to a generic
// label rather than failing the unsubscribe.
func (s *UnsubscribeService) productName(ctx context.Context, productID string) string {
	p, err := s.productStore.GetByID(ctx, productID)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			log.Warn().Err(err).Str("product_id", productID).Msg("Product lookup for unsubscribe page failed")
		}
		return "this product"
	}
	if p.Name == "" {
		return "this product"
	}
	return p.Name
}
