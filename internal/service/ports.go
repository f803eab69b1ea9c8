package service

import (
	"context"

	"github.com/pricedrop/notifier/internal/models"
)

// ProductStore is the persistence surface the services need for products.
// *repository.ProductRepository satisfies it.
type ProductStore interface {
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	Upsert(ctx context.Context, p *models.Product) error
	ListActivelyTracked(ctx context.Context) ([]models.Product, error)
	UpdatePrice(ctx context.Context, productID string, prevPrice *float64, newPrice float64, currency, name string) error
	TouchChecked(ctx context.Context, productID string) error
}

// SubscriptionStore is the persistence surface the services need for
// subscriptions. *repository.SubscriptionRepository satisfies it.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, productID, email, token string) (*models.Subscription, bool, error)
	ActiveSubscribers(ctx context.Context, productID string) ([]models.Subscription, error)
	GetByToken(ctx context.Context, token string) (*models.Subscription, error)
	MarkUnsubscribed(ctx context.Context, token string) (*models.Subscription, bool, error)
}

// PageFetcher retrieves raw page content for a product URL.
// *scraperapi.Client satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string, render bool) ([]byte, error)
}
