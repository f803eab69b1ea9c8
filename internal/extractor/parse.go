package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// Regex patterns to extract numeric price values, tried in order.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*(\d{1,6}(?:,\d{3})*(?:\.\d{2})?)`),    // $1,234.56
	regexp.MustCompile(`(\d{1,6}(?:,\d{3})*(?:\.\d{2})?)\s*USD`),   // 1234.56 USD
	regexp.MustCompile(`USD\s*(\d{1,6}(?:,\d{3})*(?:\.\d{2})?)`),   // USD 1234.56
	regexp.MustCompile(`£\s*(\d{1,6}(?:,\d{3})*(?:\.\d{2})?)`),     // £999.99
	regexp.MustCompile(`€\s*(\d{1,6}(?:[.,]\d{3})*(?:[.,]\d{2})?)`), // €1.234,56 or €1,234.56
	regexp.MustCompile(`(\d{1,6}(?:,\d{3})*\.\d{2})`),              // bare decimal fallback
}

// parsePriceText pulls the first recognisable price out of an arbitrary string.
// Returns 0 when nothing matched.
func parsePriceText(text string) float64 {
	if text == "" {
		return 0
	}
	text = compressWhitespace(text)
	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(normalizeNumber(m[1]), 64)
		if err != nil {
			continue
		}
		return v
	}
	return 0
}

// parseNumeric parses values that may be either a bare number (meta tag
// content, JSON-LD strings) or symbol-decorated display text.
func parseNumeric(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(normalizeNumber(raw), 64); err == nil {
		return v
	}
	return parsePriceText(raw)
}

// normalizeNumber reduces grouped/localized numerals to a parseable form,
// handling both 1,234.56 and the European 1.234,56 convention.
func normalizeNumber(raw string) string {
	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56 style: dots group, comma is the decimal mark
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			// 1,234.56 style: commas group
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		// Comma only: decimal mark when exactly two digits follow a single
		// comma, grouping otherwise.
		if strings.Count(raw, ",") == 1 && len(raw)-lastComma == 3 {
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	}
	return raw
}

// detectCurrency infers an ISO 4217 code from symbols in the surrounding text.
func detectCurrency(text string) string {
	if strings.Contains(text, "£") {
		return "GBP"
	}
	if strings.Contains(text, "€") {
		return "EUR"
	}
	return "USD"
}

func compressWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
