package models

import "time"

// PriceDropEvent is the message published on the event bus when a tracked
// product's price decreased between two observations. It is only emitted when
// newPrice < oldPrice, both prices are known and non-zero, and the currency
// matched between the observations.
type PriceDropEvent struct {
	ProductID   string    `json:"productId"`
	ProductURL  string    `json:"productUrl"`
	ProductName string    `json:"productName"`
	OldPrice    float64   `json:"oldPrice"`
	NewPrice    float64   `json:"newPrice"`
	Currency    string    `json:"currency"`
	DetectedAt  time.Time `json:"detectedAt"`
}
