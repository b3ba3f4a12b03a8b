package logger

import (
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DiscordInteraction wraps next with logging of the incoming interaction
// and its duration. The result is a plain func so that discordgo's
// AddHandler recognizes it.
func DiscordInteraction(log *slog.Logger, next func(*discordgo.Session, *discordgo.InteractionCreate)) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		startTime := time.Now()

		logEntry := log.With(
			"interaction_id", i.ID,
			"guild_id", i.GuildID,
			"channel_id", i.ChannelID,
			"interaction_type", i.Type.String(),
		)
		if user := interactionUser(i); user != nil {
			logEntry = logEntry.With("user_id", user.ID)
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			data := i.ApplicationCommandData()
			logEntry = logEntry.With("command", data.Name)
		case discordgo.InteractionMessageComponent:
			data := i.MessageComponentData()
			logEntry = logEntry.With("custom_id", data.CustomID)
			if i.Message != nil {
				logEntry = logEntry.With("content_preview", truncateString(i.Message.Content, 50))
			}
		}

		logEntry.Info("Processing interaction")

		next(s, i)

		logEntry.Info("Finished processing interaction", "duration", time.Since(startTime))
	}
}

// interactionUser returns the invoking user in guilds and direct messages.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
