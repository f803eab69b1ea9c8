package extractor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type ldCandidate struct {
	candidate
	urlMatch bool
}

// tryJSONLD extracts price/name/currency from JSON-LD Schema.org data.
//
// It collects every Product entry on the page, then prefers the one whose
// url/@id path matches the current page URL. This correctly ignores prices
// from recommended/related products embedded on the same page. Falls back to
// the first Product found when none match.
func tryJSONLD(doc *goquery.Document, pageURL string) *candidate {
	pagePath := ""
	if u, err := url.Parse(pageURL); err == nil {
		pagePath = strings.TrimRight(u.Path, "/")
	}

	var candidates []ldCandidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return
		}
		if arr, ok := raw.([]any); ok {
			if len(arr) == 0 {
				return
			}
			raw = arr[0]
		}
		obj, ok := raw.(map[string]any)
		if !ok || !isProductType(obj["@type"]) {
			return
		}

		offers := obj["offers"]
		if arr, ok := offers.([]any); ok && len(arr) > 0 {
			offers = arr[0]
		}
		offersMap, _ := offers.(map[string]any)

		priceRaw := offersMap["price"]
		if priceRaw == nil {
			priceRaw = obj["price"]
		}
		price := ldNumber(priceRaw)
		if !plausible(price) {
			return
		}

		currency := "USD"
		if c, ok := offersMap["priceCurrency"].(string); ok && c != "" {
			currency = c
		}
		name, _ := obj["name"].(string)

		ldURLRaw, _ := obj["url"].(string)
		if ldURLRaw == "" {
			ldURLRaw, _ = obj["@id"].(string)
		}
		ldPath := strings.TrimRight(ldURLRaw, "/")
		if strings.HasPrefix(ldURLRaw, "http") {
			if u, err := url.Parse(ldURLRaw); err == nil {
				ldPath = strings.TrimRight(u.Path, "/")
			}
		}

		candidates = append(candidates, ldCandidate{
			candidate: candidate{
				price:    price,
				currency: currency,
				name:     strings.TrimSpace(name),
			},
			urlMatch: pagePath != "" && ldPath != "" && pagePath == ldPath,
		})
	})

	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if candidates[i].urlMatch {
			return &candidates[i].candidate
		}
	}
	return &candidates[0].candidate
}

// isProductType accepts "@type": "Product" as either a string or a list.
func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

// ldNumber coerces a JSON-LD price value, which may be a number or a
// (possibly grouped) string, to float64.
func ldNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return parseNumeric(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		if v == nil {
			return 0
		}
		return parseNumeric(fmt.Sprintf("%v", v))
	}
}
