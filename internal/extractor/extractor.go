// Package extractor turns raw product-page HTML into a structured price
// observation. Strategies are applied in fixed priority order:
//
//  1. JSON-LD Schema.org data (most reliable, used by major e-commerce sites)
//  2. OpenGraph / meta price tags
//  3. CSS selector heuristics (common class/id patterns, anchor-scored)
//  4. Proximity sweep (last-resort pattern match on leaf text)
//
// Extraction is a pure function of the input bytes. Malformed HTML is the
// expected, common case and never panics; it just fails the chain.
//
// JavaScript-rendered pages (React/Next.js SPAs) need a JS-capable fetcher;
// see pkg/scraperapi for the proxy that renders before returning HTML.
package extractor

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricedrop/notifier/internal/utils"
)

// Strategy identifies which extraction heuristic produced an observation.
type Strategy string

const (
	StrategyJSONLD   Strategy = "jsonld"
	StrategyMeta     Strategy = "meta"
	StrategySelector Strategy = "selector"
	StrategySweep    Strategy = "sweep"
)

// Confidence is a coarse reliability tag derived from the winning strategy.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// maxPlausiblePrice bounds the sanity range; candidates at or above it are
// rejected as parsing artifacts (concatenated digits, SKUs, timestamps).
const maxPlausiblePrice = 1_000_000

// Observation is a single successful price extraction. It is ephemeral:
// produced fresh on every call and folded into the product record by callers.
type Observation struct {
	Price      float64
	Currency   string
	Name       string
	Strategy   Strategy
	Confidence Confidence
}

type candidate struct {
	price    float64
	currency string
	name     string
}

// Extract runs the strategy chain over the page content. sourceURL
// disambiguates JSON-LD blocks describing related products on the same page;
// nameHint, when the subscriber supplied a product name, anchors the
// selector and sweep strategies to the right part of the DOM.
//
// The first strategy yielding a parseable, positive, plausibly-bounded price
// wins. When every strategy fails the returned error wraps
// utils.ErrNoPriceFound.
func Extract(content []byte, sourceURL, nameHint string) (*Observation, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable page content", utils.ErrNoPriceFound)
	}

	// Resolve the proximity anchor once: either the element whose text
	// matches the user-supplied product name, or the page H1 as a fallback.
	anchor := findAnchor(doc, nameHint)

	if c := tryJSONLD(doc, sourceURL); c != nil {
		return observe(doc, c, StrategyJSONLD, ConfidenceHigh), nil
	}
	if c := tryMeta(doc); c != nil {
		return observe(doc, c, StrategyMeta, ConfidenceMedium), nil
	}
	if c := trySelectors(doc, anchor); c != nil {
		return observe(doc, c, StrategySelector, ConfidenceMedium), nil
	}
	if c := trySweep(doc, anchor); c != nil {
		return observe(doc, c, StrategySweep, ConfidenceLow), nil
	}

	return nil, fmt.Errorf("%w: no strategy matched %s", utils.ErrNoPriceFound, sourceURL)
}

func observe(doc *goquery.Document, c *candidate, s Strategy, conf Confidence) *Observation {
	name := c.name
	if name == "" {
		name = extractTitle(doc)
	}
	return &Observation{
		Price:      c.price,
		Currency:   c.currency,
		Name:       name,
		Strategy:   s,
		Confidence: conf,
	}
}

func plausible(price float64) bool {
	return price > 0 && price < maxPlausiblePrice
}
