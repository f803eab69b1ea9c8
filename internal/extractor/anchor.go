package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// dom distance returned for elements without a common ancestor.
const disconnected = 10_000

var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"meta":     true,
	"link":     true,
	"head":     true,
	"noscript": true,
}

// findAnchor returns the element whose text most tightly matches nameHint.
//
// Every element containing the hint is scored by len(hint) / len(text): a
// score of 1.0 means the element's entire text IS the product name. Large
// containers that merely contain the name somewhere score much lower, so we
// end up pointing at the tightest, most specific title element on the page
// rather than a wrapper div.
//
// Falls back to the first H1 when the hint is empty or unmatched.
func findAnchor(doc *goquery.Document, nameHint string) *html.Node {
	needle := strings.ToLower(strings.TrimSpace(nameHint))
	if needle == "" {
		return firstH1(doc)
	}

	var best *html.Node
	bestScore := 0.0

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if n.Type != html.ElementNode || skipTags[n.Data] {
			return
		}
		text := strings.ToLower(compressWhitespace(s.Text()))
		if text == "" || !strings.Contains(text, needle) {
			return
		}
		score := float64(len(needle)) / float64(len(text))
		if score > bestScore {
			bestScore = score
			best = n
		}
	})

	if best != nil {
		return best
	}
	return firstH1(doc)
}

func firstH1(doc *goquery.Document) *html.Node {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return nil
	}
	return h1.Get(0)
}

// domDistance is the number of edges traversed in the DOM tree between two
// elements: the shortest path through their closest common ancestor.
func domDistance(a, b *html.Node) int {
	if a == nil || b == nil {
		return disconnected
	}
	depths := make(map[*html.Node]int)
	depth := 0
	for n := a; n != nil; n = n.Parent {
		depths[n] = depth
		depth++
	}
	depth = 0
	for n := b; n != nil; n = n.Parent {
		if aDepth, ok := depths[n]; ok {
			return aDepth + depth
		}
		depth++
	}
	return disconnected
}
