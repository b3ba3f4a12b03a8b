package router

import (
	"context"
	"log/slog"

	"github.com/gapless/explainbot/internal/codec"
	"github.com/gapless/explainbot/internal/conversation"
	apperrors "github.com/gapless/explainbot/internal/errors"
	"github.com/gapless/explainbot/internal/format"
	"github.com/gapless/explainbot/internal/text"
)

// Discord command names. CommandExplainMessage is the message context-menu
// command; the others are slash commands.
const (
	CommandExplain        = "explain"
	CommandExplainMessage = "EXPLAIN!"
	CommandSetup          = "setup"
	CommandDict           = "dict"

	// OptionText is the string option of the explain slash command.
	OptionText = "text"
)

// DiscordEventKind classifies an interaction.
type DiscordEventKind int

const (
	DiscordOther DiscordEventKind = iota
	DiscordChatCommand
	DiscordMessageCommand
	DiscordButton
)

// DiscordEvent is the platform-neutral view of a Discord interaction.
type DiscordEvent struct {
	Kind DiscordEventKind
	// Name is the invoked command name.
	Name string
	// CustomID is the clicked component's id.
	CustomID string
	// Text is the explain option value, or the target message content of a
	// message command.
	Text string
	// MessageContent is the content of the message holding a clicked button.
	MessageContent string
	GuildID        string
	UserID         string
	InteractionID  string
	// AppID and Token address the interaction's webhook.
	AppID string
	Token string
}

// DiscordResponder answers a Discord interaction. Every reply is ephemeral.
type DiscordResponder interface {
	// Acknowledge defers the interaction. A non-empty placeholder is shown
	// while the explanation is produced.
	Acknowledge(ctx context.Context, ev DiscordEvent, placeholder string) error
	// Reply answers an interaction that has not been acknowledged.
	Reply(ctx context.Context, ev DiscordEvent, msg format.DiscordMessage) error
	// EditReply replaces the acknowledged reply.
	EditReply(ctx context.Context, ev DiscordEvent, msg format.DiscordMessage) error
}

// DiscordDeps provides dependencies for the Discord router.
type DiscordDeps struct {
	Logger    *slog.Logger
	Explainer Explainer
	Formatter *format.Formatter
	Responder DiscordResponder
	SetupURL  string
	DictURL   string
}

// Discord routes Discord interactions.
type Discord struct {
	deps  DiscordDeps
	log   *slog.Logger
	codec codec.Discord
}

func NewDiscord(deps DiscordDeps) *Discord {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Discord{
		deps: deps,
		log:  deps.Logger.With("component", "discord_router"),
	}
}

// Handle dispatches one interaction. Failures are logged and answered with
// the error notice; Handle never returns them.
func (d *Discord) Handle(ctx context.Context, ev DiscordEvent) {
	switch {
	case ev.Kind == DiscordButton && ev.CustomID == format.ExplainMoreID:
		d.handleExplainMore(ctx, ev)
	case ev.Kind == DiscordMessageCommand && ev.Name == CommandExplainMessage:
		d.handleExplain(ctx, ev, "message_command")
	case ev.Kind == DiscordChatCommand && ev.Name == CommandExplain:
		d.handleExplain(ctx, ev, "explain")
	case ev.Kind == DiscordChatCommand && ev.Name == CommandSetup:
		d.handleLink(ctx, ev, d.deps.SetupURL)
	case ev.Kind == DiscordChatCommand && ev.Name == CommandDict:
		d.handleLink(ctx, ev, d.deps.DictURL)
	default:
		d.log.DebugContext(ctx, "Ignoring unhandled interaction",
			"kind", ev.Kind, "name", ev.Name, "custom_id", ev.CustomID)
	}
}

func (d *Discord) handleExplain(ctx context.Context, ev DiscordEvent, handler string) {
	log := d.log.With("handler", handler, "interaction_id", ev.InteractionID, "guild_id", ev.GuildID)
	lc := NewLifecycle()

	input := text.Sanitize(ev.Text)
	if input == "" {
		err := apperrors.NewNoInputText("interaction carried no text")
		log.InfoContext(ctx, "Answering interaction without text", "code", apperrors.Code(err))
		if err := lc.ResolveNow(func() error {
			return d.deps.Responder.Reply(ctx, ev, d.deps.Formatter.DiscordText(d.deps.Formatter.Messages().NoText))
		}); err != nil {
			log.ErrorContext(ctx, "Failed to deliver reply", "error", err)
		}
		return
	}

	if err := lc.Acknowledge(func() error {
		return d.deps.Responder.Acknowledge(ctx, ev, "")
	}); err != nil {
		log.ErrorContext(ctx, "Failed to acknowledge interaction", "error", err)
		return
	}

	log.InfoContext(ctx, "Explaining text", "text_length", len(input))
	turn, err := explainTurn(ctx, d.deps.Explainer, conversation.Turn{InputText: input}, conversation.PlatformDiscord, ev.GuildID)
	d.resolve(ctx, log, lc, ev, turn, err)
}

func (d *Discord) handleExplainMore(ctx context.Context, ev DiscordEvent) {
	log := d.log.With("handler", "explain_more", "interaction_id", ev.InteractionID, "guild_id", ev.GuildID)
	lc := NewLifecycle()

	if err := lc.Acknowledge(func() error {
		return d.deps.Responder.Acknowledge(ctx, ev, d.deps.Formatter.Messages().Loading)
	}); err != nil {
		log.ErrorContext(ctx, "Failed to acknowledge interaction", "error", err)
		return
	}

	turn, err := recoverTurn(ctx, log, d.codec, ev.MessageContent)
	if err != nil {
		d.resolve(ctx, log, lc, ev, conversation.Turn{}, err)
		return
	}

	log.InfoContext(ctx, "Explaining further", "has_explanation", turn.HasExplanation())
	next, err := explainTurn(ctx, d.deps.Explainer, turn, conversation.PlatformDiscord, ev.GuildID)
	d.resolve(ctx, log, lc, ev, next, err)
}

func (d *Discord) handleLink(ctx context.Context, ev DiscordEvent, url string) {
	log := d.log.With("handler", ev.Name, "interaction_id", ev.InteractionID)
	if err := NewLifecycle().ResolveNow(func() error {
		return d.deps.Responder.Reply(ctx, ev, d.deps.Formatter.DiscordText(url))
	}); err != nil {
		log.ErrorContext(ctx, "Failed to deliver link", "error", err)
	}
}

// resolve delivers the turn, or the error notice when err is set.
func (d *Discord) resolve(ctx context.Context, log *slog.Logger, lc *Lifecycle, ev DiscordEvent, turn conversation.Turn, err error) {
	var msg format.DiscordMessage
	if err != nil {
		log.ErrorContext(ctx, "Explanation failed", "error", err, "code", apperrors.Code(err))
		msg = d.deps.Formatter.DiscordError()
	} else {
		msg = d.deps.Formatter.Discord(turn, format.Affordance{ExplainMore: true})
	}
	if err := lc.Resolve(func() error {
		return d.deps.Responder.EditReply(ctx, ev, msg)
	}); err != nil {
		log.ErrorContext(ctx, "Failed to deliver reply", "error", err, "code", apperrors.Code(err))
	}
}
