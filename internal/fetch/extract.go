package fetch

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NextDataSelector matches the JSON data island emitted by Next.js pages.
const NextDataSelector = `script#__NEXT_DATA__`

// ErrNoDataIsland is returned when the page carries no matching script element.
var ErrNoDataIsland = errors.New("data island not found")

// ExtractDataIsland parses an HTML document and returns the raw text content of the
// first element matching selector. The content is returned as-is; callers decode it.
func ExtractDataIsland(html []byte, selector string) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(selector).First()
	if selection.Length() == 0 {
		return nil, ErrNoDataIsland
	}

	text := strings.TrimSpace(selection.Text())
	if text == "" {
		return nil, ErrNoDataIsland
	}
	return []byte(text), nil
}
