// Package format renders conversation turns, notices and greetings as
// platform-native messages. Rendering is deterministic: the same turn and
// affordance always produce identical messages.
package format

import (
	"unicode/utf8"

	"github.com/gapless/explainbot/internal/config"
)

// ExplainMoreID is the Discord button custom id and the Slack action id of the
// follow-up affordance.
const ExplainMoreID = "explain_more"

// Platform size limits, in characters.
const (
	DiscordContentLimit   = 2000
	SlackButtonValueLimit = 2000
	SlackSectionTextLimit = 3000
	slackFallbackTextSize = 150
)

// Affordance selects the interactive elements attached to a turn.
type Affordance struct {
	ExplainMore bool
}

// Formatter renders messages with the configured labels.
type Formatter struct {
	messages config.MessagesConfig
}

// New returns a Formatter using messages for every label and notice.
func New(messages config.MessagesConfig) *Formatter {
	return &Formatter{messages: messages}
}

// Messages returns the configured strings.
func (f *Formatter) Messages() config.MessagesConfig {
	return f.messages
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// chunk splits s into pieces of at most limit runes.
func chunk(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}
	var out []string
	for len(runes) > 0 {
		n := min(limit, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
