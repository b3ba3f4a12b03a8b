package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/gapless/explainbot/internal/codec"
	"github.com/gapless/explainbot/internal/conversation"
)

// mrkdwnEscaper escapes the three characters Slack reserves in mrkdwn text.
var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// SlackMessage is the text and blocks of a Slack reply. Text is the
// notification fallback when blocks are present.
type SlackMessage struct {
	Text   string
	Blocks []slack.Block
}

// HasExplainMore reports whether the message carries the follow-up action.
func (m SlackMessage) HasExplainMore() bool {
	return m.ExplainMoreValue() != ""
}

// ExplainMoreValue returns the carrier of the follow-up action, or "".
func (m SlackMessage) ExplainMoreValue() string {
	for _, b := range m.Blocks {
		actions, ok := b.(*slack.ActionBlock)
		if !ok || actions.Elements == nil {
			continue
		}
		for _, el := range actions.Elements.ElementSet {
			if btn, ok := el.(*slack.ButtonBlockElement); ok && btn.ActionID == ExplainMoreID {
				return btn.Value
			}
		}
	}
	return ""
}

// Slack renders turn. Visible text is split over several sections instead of
// being cut. The button value is the carrier; when it exceeds Slack's value
// limit the button is withheld rather than truncated.
func (f *Formatter) Slack(turn conversation.Turn, aff Affordance) SlackMessage {
	rendered := fmt.Sprintf("Input Text:\n```\n%s\n```\n\nExplanation:\n```\n%s\n```",
		mrkdwnEscaper.Replace(turn.InputText), mrkdwnEscaper.Replace(turn.Explanation))

	msg := SlackMessage{Text: truncate(turn.Explanation, slackFallbackTextSize)}
	for _, part := range chunk(rendered, SlackSectionTextLimit) {
		msg.Blocks = append(msg.Blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, part, false, false), nil, nil))
	}

	if !aff.ExplainMore {
		return msg
	}
	value, err := codec.EncodeSlack(turn)
	if err != nil || utf8.RuneCountInString(value) > SlackButtonValueLimit {
		return msg
	}
	button := slack.NewButtonBlockElement(ExplainMoreID, value,
		slack.NewTextBlockObject(slack.PlainTextType, f.messages.ExplainMore, true, false))
	msg.Blocks = append(msg.Blocks, slack.NewActionBlock("", button))
	return msg
}

// SlackText renders a plain notice without blocks.
func (f *Formatter) SlackText(text string) SlackMessage {
	return SlackMessage{Text: text}
}

// SlackError renders the fixed error notice.
func (f *Formatter) SlackError() SlackMessage {
	return f.SlackText(f.messages.Error)
}

// SlackGreeting renders the message posted when the bot joins a channel.
func (f *Formatter) SlackGreeting() SlackMessage {
	return SlackMessage{
		Text: f.messages.GreetingTitle,
		Blocks: []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, f.messages.GreetingTitle, true, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, f.messages.GreetingDescription, false, false), nil, nil),
		},
	}
}
