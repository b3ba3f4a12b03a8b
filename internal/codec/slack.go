package codec

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gapless/explainbot/internal/conversation"
	apperrors "github.com/gapless/explainbot/internal/errors"
)

// slackCarrier is the button value layout.
type slackCarrier struct {
	Text                string `json:"text"`
	PreviousExplanation string `json:"previous_explanation"`
}

// Slack stores turns as JSON in a block action value.
type Slack struct{}

func (Slack) Platform() conversation.Platform {
	return conversation.PlatformSlack
}

func (Slack) Encode(turn conversation.Turn) (string, error) {
	return EncodeSlack(turn)
}

func (Slack) Decode(value string) (conversation.Turn, error) {
	return DecodeSlack(value)
}

// EncodeSlack returns the button value for turn. HTML characters are left
// unescaped so that the value Slack echoes back is byte-identical.
func EncodeSlack(turn conversation.Turn) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(slackCarrier{Text: turn.InputText, PreviousExplanation: turn.Explanation}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeSlack parses a button value. Any parse failure, or a value without
// text, is a carrier decode failure; no text recovery is attempted.
func DecodeSlack(value string) (conversation.Turn, error) {
	var c slackCarrier
	if err := json.Unmarshal([]byte(value), &c); err != nil {
		return conversation.Turn{}, apperrors.NewCarrierDecode("invalid slack button value", err)
	}
	if c.Text == "" {
		return conversation.Turn{}, apperrors.NewCarrierDecode("slack button value has no text", nil)
	}
	return conversation.Turn{InputText: c.Text, Explanation: c.PreviousExplanation}, nil
}
