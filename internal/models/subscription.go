package models

import "time"

// SubscriptionStatus enumerates the subscription lifecycle states.
type SubscriptionStatus string

const (
	StatusActive       SubscriptionStatus = "ACTIVE"
	StatusUnsubscribed SubscriptionStatus = "UNSUBSCRIBED"
)

// Subscription links one email address to one tracked product. At most one
// ACTIVE row exists per (product_id, email) pair; rows are never deleted,
// the status just flips one way to UNSUBSCRIBED.
type Subscription struct {
	SubscriptionID   string             `db:"subscription_id" json:"subscriptionId"`
	ProductID        string             `db:"product_id" json:"productId"`
	Email            string             `db:"email" json:"email"`
	Status           SubscriptionStatus `db:"status" json:"status"`
	UnsubscribeToken string             `db:"unsubscribe_token" json:"-"`
	CreatedAt        time.Time          `db:"created_at" json:"createdAt"`
	UnsubscribedAt   *time.Time         `db:"unsubscribed_at" json:"unsubscribedAt,omitempty"`
}

// IsActive reports whether the subscription still receives notifications.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}
