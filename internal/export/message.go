package export

import (
	"net/url"
	"strings"
)

// Message builds the plain-text body of the messaging export.
func Message(items []Item, contact Contact) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptySelection
	}

	var b strings.Builder
	b.WriteString(Greeting + "\n")
	b.WriteString(Intro + "\n")
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(it.Line())
	}
	b.WriteString("\n\n")
	for _, l := range contact.Lines() {
		b.WriteString(l + "\n")
	}
	return b.String(), nil
}

// componentEscaper maps query escaping onto encodeURIComponent: spaces
// become %20 and !'()* stay literal.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// MessageLink returns endpoint/number?text=<msg>, with msg percent-encoded
// the way a browser's encodeURIComponent would.
func MessageLink(endpoint, number, msg string) string {
	text := componentEscaper.Replace(url.QueryEscape(msg))
	return strings.TrimRight(endpoint, "/") + "/" + number + "?text=" + text
}
