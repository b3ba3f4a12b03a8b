// Package discord connects the explain bot to the Discord gateway. It
// registers the application commands, turns interactions into router events
// and greets guilds the bot is added to.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/format"
	"github.com/gapless/explainbot/internal/logger"
	"github.com/gapless/explainbot/internal/router"
)

// interactionTokenTTL is how long Discord accepts edits through an
// interaction token.
const interactionTokenTTL = 15 * time.Minute

// Deps provides the collaborators of the Discord bot.
type Deps struct {
	Logger    *slog.Logger
	Explainer router.Explainer
	Formatter *format.Formatter
}

// Bot owns the gateway session.
type Bot struct {
	cfg       config.DiscordConfig
	session   *discordgo.Session
	router    *router.Discord
	formatter *format.Formatter
	log       *slog.Logger

	ctx       context.Context
	startedAt time.Time
}

// New creates the session and router. No connection is made until Run.
func New(cfg config.DiscordConfig, deps Deps) (*Bot, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	b := &Bot{
		cfg:       cfg,
		session:   session,
		formatter: deps.Formatter,
		log:       deps.Logger.With("component", "discord"),
		ctx:       context.Background(),
	}
	b.router = router.NewDiscord(router.DiscordDeps{
		Logger:    deps.Logger,
		Explainer: deps.Explainer,
		Formatter: deps.Formatter,
		Responder: responder{session: session},
		SetupURL:  cfg.SetupURL,
		DictURL:   cfg.DictURL,
	})

	session.AddHandler(b.onReady)
	session.AddHandler(logger.DiscordInteraction(b.log, b.onInteraction))
	session.AddHandler(b.onGuildCreate)
	return b, nil
}

// Run registers the commands, connects, and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	if err := b.RegisterCommands(ctx); err != nil {
		return err
	}

	b.startedAt = time.Now()
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.log.InfoContext(ctx, "Discord session opened")

	<-ctx.Done()

	b.log.Info("Shutdown signal received, closing discord session...")
	if err := b.session.Close(); err != nil {
		b.log.Error("Error closing discord session", "error", err)
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("Discord bot ready", "user", r.User.String(), "guilds", len(r.Guilds))
}

func (b *Bot) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(b.ctx, interactionTokenTTL)
	defer cancel()
	b.router.Handle(ctx, toEvent(i))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || !isNewGuild(g.Guild, b.startedAt) {
		return
	}
	log := b.log.With("handler", "guild_join", "guild_id", g.ID)
	if s.State == nil || s.State.User == nil {
		log.Warn("Session state has no bot user, skipping greeting")
		return
	}

	botID := s.State.User.ID
	channelID := greetingChannel(g.Channels, func(channelID string) bool {
		perms, err := s.State.UserChannelPermissions(botID, channelID)
		return err == nil && perms&discordgo.PermissionSendMessages != 0
	})
	if channelID == "" {
		log.Info("No channel available for greeting")
		return
	}

	if _, err := s.ChannelMessageSendEmbed(channelID, b.formatter.DiscordGreeting(), discordgo.WithContext(b.ctx)); err != nil {
		log.Error("Failed to send greeting", "error", err, "channel_id", channelID)
		return
	}
	log.Info("Sent greeting", "channel_id", channelID)
}
