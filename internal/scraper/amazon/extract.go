package amazon

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BulletLines parses a feature-bullets HTML fragment and returns the
// non-empty bullet texts joined with newlines.
func BulletLines(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var lines []string
	doc.Find("li").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})
	return strings.Join(lines, "\n")
}

// CleanBrand strips the boilerplate Amazon wraps around the brand byline,
// e.g. "Visit the Acme Store" or "Brand: Acme".
func CleanBrand(byline string) string {
	text := strings.TrimSpace(byline)
	text = strings.TrimPrefix(text, "Visit the ")
	text = strings.TrimPrefix(text, "Brand: ")
	text = strings.TrimSuffix(text, " Store")
	return strings.TrimSpace(text)
}
