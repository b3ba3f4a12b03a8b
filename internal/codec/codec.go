// Package codec stores a conversation turn inside the platform message that
// displays it, so a follow-up can rebuild the turn without any backing store.
//
// Discord keeps the turn in the rendered message text; Slack keeps it as JSON in
// the value of the "Explain more!" button. For both, Decode(Encode(t)) == t as
// long as neither field contains the marker or fence literals and neither has
// leading or trailing whitespace.
package codec

import (
	"errors"
	"fmt"

	"github.com/gapless/explainbot/internal/conversation"
)

// Codec converts a turn to and from its carrier for one platform.
type Codec interface {
	Platform() conversation.Platform
	Encode(turn conversation.Turn) (string, error)
	Decode(carrier string) (conversation.Turn, error)
}

// ErrMarkersMissing is returned together with a usable turn when a Discord
// message lacks the Input Text/Explanation sections. The whole content is then
// taken as the input text and the explanation is left empty.
var ErrMarkersMissing = errors.New("codec: input/explanation markers missing")

// For returns the codec of platform.
func For(platform conversation.Platform) (Codec, error) {
	switch platform {
	case conversation.PlatformDiscord:
		return Discord{}, nil
	case conversation.PlatformSlack:
		return Slack{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown platform %q", platform)
	}
}
