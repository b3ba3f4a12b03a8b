package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/gapless/explainbot/internal/router"
)

// Commands returns the application commands the bot answers to.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        router.CommandExplain,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Explain a piece of text",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        router.OptionText,
					Description: "The text to explain",
					Required:    true,
				},
			},
		},
		{
			Name: router.CommandExplainMessage,
			Type: discordgo.MessageApplicationCommand,
		},
		{
			Name:        router.CommandSetup,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Set up the explainer for this server",
		},
		{
			Name:        router.CommandDict,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Open the server dictionary",
		},
	}
}

// RegisterCommands replaces the application's commands with Commands. With a
// guild id the commands are registered on that guild only.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	created, err := b.session.ApplicationCommandBulkOverwrite(
		b.cfg.AppID, b.cfg.GuildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to register discord commands: %w", err)
	}
	b.log.InfoContext(ctx, "Registered application commands", "count", len(created), "guild_id", b.cfg.GuildID)
	return nil
}
