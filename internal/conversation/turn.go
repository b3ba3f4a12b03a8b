// Package conversation holds the value types that travel between the codec,
// the explanation client and the formatter.
package conversation

// Platform identifies the chat platform an interaction came from. The value is
// sent verbatim to the explanation service.
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformSlack   Platform = "slack"
)

func (p Platform) String() string {
	return string(p)
}

// Turn is one input/explanation exchange. An empty Explanation means the turn
// has not been explained yet. Turns are values: a follow-up builds a new Turn.
type Turn struct {
	InputText   string
	Explanation string
}

// HasExplanation reports whether the turn carries a previous explanation,
// which decides between the explain and explain-more endpoints.
func (t Turn) HasExplanation() bool {
	return t.Explanation != ""
}

// Next returns the turn that follows t once explanation has been produced.
func (t Turn) Next(explanation string) Turn {
	return Turn{InputText: t.InputText, Explanation: explanation}
}
