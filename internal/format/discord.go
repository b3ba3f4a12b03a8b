package format

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/gapless/explainbot/internal/codec"
	"github.com/gapless/explainbot/internal/conversation"
)

// greetingColor is Discord blurple.
const greetingColor = 0x5865F2

// DiscordMessage is the content and components of an interaction reply.
type DiscordMessage struct {
	Content    string
	Components []discordgo.MessageComponent
}

// HasExplainMore reports whether the message carries the follow-up button.
func (m DiscordMessage) HasExplainMore() bool {
	for _, c := range m.Components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if b, ok := inner.(discordgo.Button); ok && b.CustomID == ExplainMoreID {
				return true
			}
		}
	}
	return false
}

// Discord renders turn. The message text is the carrier, so when it does not
// fit Discord's content limit the text is shortened and the button withheld:
// a follow-up from a shortened carrier would explain the wrong text.
func (f *Formatter) Discord(turn conversation.Turn, aff Affordance) DiscordMessage {
	content := codec.EncodeDiscord(turn)
	if utf8.RuneCountInString(content) > DiscordContentLimit {
		content = truncate(content, DiscordContentLimit)
		aff.ExplainMore = false
	}

	msg := DiscordMessage{Content: content}
	if aff.ExplainMore {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    f.messages.ExplainMore,
						Style:    discordgo.PrimaryButton,
						CustomID: ExplainMoreID,
					},
				},
			},
		}
	}
	return msg
}

// DiscordText renders a plain notice without components.
func (f *Formatter) DiscordText(text string) DiscordMessage {
	return DiscordMessage{Content: truncate(text, DiscordContentLimit)}
}

// DiscordError renders the fixed error notice.
func (f *Formatter) DiscordError() DiscordMessage {
	return f.DiscordText(f.messages.Error)
}

// DiscordGreeting renders the embed posted when the bot joins a guild.
func (f *Formatter) DiscordGreeting() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       f.messages.GreetingTitle,
		Description: f.messages.GreetingDescription,
		Color:       greetingColor,
	}
}
