package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTitle is the best-effort product name extraction.
//
// Priority: JSON-LD Product name → H1 → OpenGraph title → page <title>.
// H1 is intentionally ranked above OpenGraph because og:title frequently
// includes brand prefixes and site suffixes (e.g. "Brand X Widget | Wayfair")
// whereas the H1 contains only the product title as shown on the page.
func extractTitle(doc *goquery.Document) string {
	if name := jsonldName(doc); name != "" {
		return name
	}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if text := compressWhitespace(h1.Text()); text != "" {
			return text
		}
	}

	og := doc.Find(`meta[property="og:title"]`).First()
	if og.Length() == 0 {
		og = doc.Find(`meta[name="og:title"]`).First()
	}
	if content, ok := og.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}

	if title := compressWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}

	return "Unknown Product"
}

func jsonldName(doc *goquery.Document) string {
	name := ""
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		if arr, ok := raw.([]any); ok {
			if len(arr) == 0 {
				return true
			}
			raw = arr[0]
		}
		obj, ok := raw.(map[string]any)
		if !ok || !isProductType(obj["@type"]) {
			return true
		}
		if n, ok := obj["name"].(string); ok && strings.TrimSpace(n) != "" {
			name = strings.TrimSpace(n)
			return false
		}
		return true
	})
	return name
}
