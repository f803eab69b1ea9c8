package extractor

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// metaPriceSelectors carry a machine-readable price in a content attribute.
var metaPriceSelectors = []string{
	`meta[property="product:price:amount"]`,
	`meta[property="og:price:amount"]`,
	`[itemprop="price"]`,
}

var metaCurrencySelectors = []string{
	`meta[property="product:price:currency"]`,
	`meta[property="og:price:currency"]`,
	`[itemprop="priceCurrency"]`,
}

// priceSelector pairs a CSS selector with where the value lives: the content
// attribute for microdata, visible text otherwise.
type priceSelector struct {
	selector string
	fromAttr bool
}

// CSS selectors tried in order, more specific selectors first.
var cssPriceSelectors = []priceSelector{
	// Schema.org microdata rendered as visible text
	{`[itemprop="price"]`, false},
	// Amazon
	{"#priceblock_ourprice", false},
	{"#priceblock_dealprice", false},
	{".a-price > .a-offscreen", false},
	{"#price_inside_buybox", false},
	// Best Buy
	{`.priceView-hero-price span[aria-hidden='true']`, false},
	// data-test-id / data-testid attributes (Wayfair, Target, many React apps)
	{`[data-test-id*="Price"]`, false},
	{`[data-test-id*="price"]`, false},
	{`[data-testid*="Price"]`, false},
	{`[data-testid*="price"]`, false},
	{`[data-name-id*="Price"]`, false},
	// Generic e-commerce patterns
	{".product-price", false},
	{".price--main", false},
	{".price-box .price", false},
	{".woocommerce-Price-amount", false},
	{`[class*="ProductPrice"]`, false},
	{`[class*="product-price"]`, false},
	{`[class*="current-price"]`, false},
	{`[class*="sale-price"]`, false},
	{"#price", false},
	{".price", false},
}

// tryMeta reads social-preview and microdata price tags. These are
// machine-oriented values, so no anchor scoring is needed.
func tryMeta(doc *goquery.Document) *candidate {
	for _, sel := range metaPriceSelectors {
		var found *candidate
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			raw, ok := s.Attr("content")
			if !ok || raw == "" {
				return true
			}
			price := parseNumeric(raw)
			if !plausible(price) {
				return true
			}
			found = &candidate{price: price, currency: metaCurrency(doc, raw)}
			return false
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func metaCurrency(doc *goquery.Document, priceRaw string) string {
	for _, sel := range metaCurrencySelectors {
		if c, ok := doc.Find(sel).First().Attr("content"); ok && c != "" {
			return c
		}
	}
	return detectCurrency(priceRaw)
}

// trySelectors walks the curated selector list, scoring every candidate by
// DOM distance to the anchor. The price closest to the anchor is almost
// certainly the main product price; related-product prices live in separate
// subtrees.
func trySelectors(doc *goquery.Document, anchor *html.Node) *candidate {
	bestDist := disconnected + 1
	var best *candidate

	for _, ps := range cssPriceSelectors {
		doc.Find(ps.selector).Each(func(_ int, s *goquery.Selection) {
			var raw string
			if ps.fromAttr {
				raw, _ = s.Attr("content")
			} else {
				raw = compressWhitespace(s.Text())
			}
			price := parsePriceText(raw)
			if !plausible(price) {
				return
			}
			dist := 0
			if anchor != nil {
				dist = domDistance(s.Get(0), anchor)
			}
			if dist < bestDist {
				bestDist = dist
				best = &candidate{price: price, currency: detectCurrency(raw)}
			}
		})
	}
	return best
}

// trySweep is the full proximity sweep over short-text leaf elements.
//
// It scans every leaf element whose visible text is at most 30 chars,
// extracts any price pattern, and returns the candidate closest to the
// anchor. This is the primary strategy for sites with obfuscated CSS class
// names (most React/CSS-in-JS apps) where selector-based strategies yield
// nothing, and the most accurate one when the subscriber supplied a product
// name, since the anchor then points directly at their product's title.
func trySweep(doc *goquery.Document, anchor *html.Node) *candidate {
	bestDist := disconnected + 1
	var best *candidate

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if n.Type != html.ElementNode || skipTags[n.Data] {
			return
		}
		// Leaf-ish only: elements with child tags are containers.
		if s.Children().Length() > 0 {
			return
		}
		text := compressWhitespace(s.Text())
		if text == "" || len(text) > 30 {
			return
		}
		price := parsePriceText(text)
		if !plausible(price) {
			return
		}
		dist := 0
		if anchor != nil {
			dist = domDistance(n, anchor)
		}
		if dist < bestDist {
			bestDist = dist
			best = &candidate{price: price, currency: detectCurrency(text)}
		}
	})
	return best
}
