package note

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractText reduces rich-text markup to a plain-text projection: the
// non-empty, trimmed text runs in document order, joined by single spaces.
// Best-effort on malformed markup; unparsable fragments contribute nothing.
func ExtractText(markup string) string {
	if markup == "" {
		return ""
	}

	var parts []string
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a malformed fragment; either way we keep what we have
			break
		}
		if tt != html.TextToken {
			continue
		}
		if text := strings.TrimSpace(string(z.Text())); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
