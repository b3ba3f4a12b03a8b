// Package text normalizes user-supplied text before it is sent for explanation.
package text

import (
	"regexp"
	"strings"
)

var (
	// unicodeReplacer drops invisible format characters and maps unicode
	// separators onto plain spaces and newlines.
	unicodeReplacer = strings.NewReplacer(
		"\u2060", "", "\u180E", "",
		"\u2028", "\n", "\u2029", "\n\n",
		"\u200B", "", "\u200C", "",
		"\u200D", "", "\uFEFF", "",
		"\u00AD", "", "\u205F", " ",
		"\u202A", "", "\u202B", "",
		"\u202C", "", "\u202D", "", "\u202E", "",
	)

	controlCharsRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	// shortcutMarkersRegex matches the list and heading characters Slack
	// leaves in the plain text of a shared message.
	shortcutMarkersRegex = regexp.MustCompile(`[•\-*#]`)
)

// Sanitize normalizes line endings, removes invisible unicode and ASCII
// control characters, and trims surrounding whitespace. Inner whitespace is
// kept so code and indentation survive.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = unicodeReplacer.Replace(s)
	s = controlCharsRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ShortcutText prepares the text of a message shared through a Slack message
// shortcut: it is sanitized and stripped of bullet, dash, asterisk and hash
// characters.
func ShortcutText(s string) string {
	return Sanitize(shortcutMarkersRegex.ReplaceAllString(s, ""))
}
