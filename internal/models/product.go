package models

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricedrop/notifier/internal/utils"
)

// Product is a tracked product page. One row exists per normalized URL;
// LastKnownPrice is nil until a scrape has succeeded at least once.
type Product struct {
	ProductID      string    `db:"product_id" json:"productId"`
	URL            string    `db:"url" json:"url"`
	Name           string    `db:"name" json:"name"`
	Currency       string    `db:"currency" json:"currency"`
	LastKnownPrice *float64  `db:"last_known_price" json:"lastKnownPrice,omitempty"`
	LastCheckedAt  time.Time `db:"last_checked_at" json:"lastCheckedAt"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
}

// NormalizeURL canonicalizes a product URL so that trivially different
// spellings of the same page map to the same product: lowercased scheme and
// host, no fragment, no trailing slash, tracking parameters stripped and the
// remaining query sorted.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", utils.ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || lower == "gclid" || lower == "fbclid" || lower == "ref" {
			q.Del(key)
		}
	}
	if len(q) == 0 {
		u.RawQuery = ""
	} else {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for _, k := range keys {
			for _, v := range q[k] {
				if sb.Len() > 0 {
					sb.WriteByte('&')
				}
				sb.WriteString(url.QueryEscape(k))
				sb.WriteByte('=')
				sb.WriteString(url.QueryEscape(v))
			}
		}
		u.RawQuery = sb.String()
	}

	return u.String(), nil
}

// DeriveProductID returns the deterministic product ID for a normalized URL.
// The same URL always yields the same ID (UUIDv5 in the URL namespace), which
// is what lets concurrent subscribes for one page converge on one row.
func DeriveProductID(normalizedURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(normalizedURL)).String()
}
