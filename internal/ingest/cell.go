// internal/ingest/cell.go
//
// Name and link extraction from the provider cell.
//
// Context
// -------
// The provider column has been filled in every way a spreadsheet allows:
// real hyperlinks, HYPERLINK() formulas typed as text, Telegram handles,
// URLs pasted after the name, and bare domains.  ParseNameCell tries those
// shapes in a fixed order and stops at the first that applies.
//
// Notes
// -----
//   - Every embedded URL is removed from the name; the first becomes the
//     link.
//   - A HYPERLINK() formula is matched from the start of the cell; text
//     after the closing parenthesis is ignored.
//   - Oxford commas, two spaces after periods.
package ingest

import (
	"regexp"
	"strings"

	"github.com/yanizio/hostcat/internal/sheet"
)

// DefaultMessagingBaseURL prefixes @handles.
const DefaultMessagingBaseURL = "https://t.me/"

var (
	formulaRe   = regexp.MustCompile(`(?i)^=\s*HYPERLINK\(\s*"([^"]*)"\s*[;,]\s*"([^"]*)"\s*\)`)
	embeddedRe  = regexp.MustCompile(`https?://\S+`)
	bareDomain  = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	whitespaceR = regexp.MustCompile(`\s+`)
)

// ParseNameCell returns the hosting name and optional url held by c.
// messagingBase replaces DefaultMessagingBaseURL when non-empty.
func ParseNameCell(c sheet.Cell, messagingBase string) (string, *string) {
	text := strings.TrimSpace(c.Text)

	if c.Link != nil {
		return text, optional(strings.TrimSpace(*c.Link))
	}

	if m := formulaRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2]), optional(strings.TrimSpace(m[1]))
	}

	if strings.HasPrefix(text, "@") {
		if messagingBase == "" {
			messagingBase = DefaultMessagingBaseURL
		}
		u := messagingBase + strings.TrimPrefix(text, "@")
		return text, &u
	}

	if u := embeddedRe.FindString(text); u != "" {
		rest := embeddedRe.ReplaceAllString(text, " ")
		name := strings.TrimSpace(whitespaceR.ReplaceAllString(rest, " "))
		return name, &u
	}

	if bareDomain.MatchString(text) {
		u := "https://" + text
		return text, &u
	}

	return text, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
