package discord

import (
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/gapless/explainbot/internal/router"
)

// toEvent converts an interaction into the router's view of it.
func toEvent(i *discordgo.InteractionCreate) router.DiscordEvent {
	ev := router.DiscordEvent{
		Kind:          router.DiscordOther,
		GuildID:       i.GuildID,
		InteractionID: i.ID,
		AppID:         i.AppID,
		Token:         i.Token,
	}
	if i.Member != nil && i.Member.User != nil {
		ev.UserID = i.Member.User.ID
	} else if i.User != nil {
		ev.UserID = i.User.ID
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		ev.Name = data.Name
		switch data.CommandType {
		case discordgo.MessageApplicationCommand:
			ev.Kind = router.DiscordMessageCommand
			if data.Resolved != nil {
				if msg, ok := data.Resolved.Messages[data.TargetID]; ok && msg != nil {
					ev.Text = msg.Content
				}
			}
		case discordgo.ChatApplicationCommand:
			ev.Kind = router.DiscordChatCommand
			for _, opt := range data.Options {
				if opt.Name == router.OptionText && opt.Type == discordgo.ApplicationCommandOptionString {
					ev.Text = opt.StringValue()
				}
			}
		}
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		if data.ComponentType == discordgo.ButtonComponent {
			ev.Kind = router.DiscordButton
			ev.CustomID = data.CustomID
		}
		if i.Message != nil {
			ev.MessageContent = i.Message.Content
		}
	}
	return ev
}

// isNewGuild reports whether a GuildCreate is a join rather than one of the
// guilds streamed in after connecting.
func isNewGuild(g *discordgo.Guild, startedAt time.Time) bool {
	return !g.Unavailable && !g.JoinedAt.IsZero() && g.JoinedAt.After(startedAt)
}

// greetingChannel returns the id of the topmost text channel canSend allows,
// or "".
func greetingChannel(channels []*discordgo.Channel, canSend func(channelID string) bool) string {
	text := make([]*discordgo.Channel, 0, len(channels))
	for _, c := range channels {
		if c != nil && c.Type == discordgo.ChannelTypeGuildText {
			text = append(text, c)
		}
	}
	sort.SliceStable(text, func(a, b int) bool { return text[a].Position < text[b].Position })

	for _, c := range text {
		if canSend(c.ID) {
			return c.ID
		}
	}
	return ""
}
