package codec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gapless/explainbot/internal/conversation"
	apperrors "github.com/gapless/explainbot/internal/errors"
)

const (
	InputMarker       = "Input Text:"
	ExplanationMarker = "Explanation:"
)

var (
	// codeFenceRegex matches a whole segment wrapped in one code fence with an
	// optional md language tag.
	codeFenceRegex = regexp.MustCompile("(?s)^```(?:md)?\n(.*?)```$")

	// Markers only count on a line of their own, so prose that mentions
	// "Explanation:" mid-sentence does not split the message.
	inputMarkerRegex       = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(InputMarker) + `[ \t]*$`)
	explanationMarkerRegex = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(ExplanationMarker) + `[ \t]*$`)
)

// Discord renders turns as two fenced markdown sections in the message text.
type Discord struct{}

func (Discord) Platform() conversation.Platform {
	return conversation.PlatformDiscord
}

func (Discord) Encode(turn conversation.Turn) (string, error) {
	return EncodeDiscord(turn), nil
}

func (Discord) Decode(content string) (conversation.Turn, error) {
	return DecodeDiscord(content)
}

// EncodeDiscord renders turn as message content.
func EncodeDiscord(turn conversation.Turn) string {
	return fmt.Sprintf("%s\n```md\n%s\n```\n\n%s\n```md\n%s\n```",
		InputMarker, turn.InputText, ExplanationMarker, turn.Explanation)
}

// DecodeDiscord rebuilds a turn from message content produced by EncodeDiscord.
//
// The explanation is the last segment after an Explanation marker line and the
// input text is the first segment after the Input Text marker line. When a marker is absent the
// content is used as raw input text and ErrMarkersMissing is returned alongside
// the turn; an empty result is a carrier decode failure.
func DecodeDiscord(content string) (conversation.Turn, error) {
	segments := explanationMarkerRegex.Split(content, -1)
	head := inputMarkerRegex.Split(segments[0], -1)

	if len(segments) < 2 || len(head) < 2 {
		raw := stripCodeFence(content)
		if raw == "" {
			return conversation.Turn{}, apperrors.NewCarrierDecode("discord message has no text", nil)
		}
		return conversation.Turn{InputText: raw}, ErrMarkersMissing
	}

	turn := conversation.Turn{
		InputText:   stripCodeFence(head[1]),
		Explanation: stripCodeFence(segments[len(segments)-1]),
	}
	if turn.InputText == "" {
		return conversation.Turn{}, apperrors.NewCarrierDecode("discord message has an empty input section", nil)
	}
	return turn, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}
