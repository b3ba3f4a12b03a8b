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

// Slack identifiers the router answers to.
const (
	SlashCommandExplain = "/explain"
	ShortcutCallbackID  = "gapless_explain"
)

// SlackEventKind classifies an inbound Slack request.
type SlackEventKind int

const (
	SlackOther SlackEventKind = iota
	SlackCommand
	SlackShortcut
	SlackBlockAction
	SlackMemberJoined
)

// SlackEvent is the platform-neutral view of a Slack request.
type SlackEvent struct {
	Kind SlackEventKind
	// Command is the slash command, e.g. "/explain".
	Command string
	// CallbackID identifies a message shortcut.
	CallbackID string
	// ActionID and ActionValue describe the first block action.
	ActionID    string
	ActionValue string
	// Text is the slash command text or the shortcut's message text.
	Text        string
	ResponseURL string
	TeamID      string
	ChannelID   string
	UserID      string
}

// Acknowledger answers the HTTP request that carried a Slack event. Exactly
// one of its methods is called per request.
type Acknowledger interface {
	// Ack sends an empty success response.
	Ack() error
	// AckWith sends msg as the ephemeral response body.
	AckWith(msg format.SlackMessage) error
}

// SlackResponder delivers messages after acknowledgment.
type SlackResponder interface {
	// Respond posts an ephemeral message to a one-time response URL.
	Respond(ctx context.Context, responseURL string, msg format.SlackMessage, replaceOriginal bool) error
	// PostMessage posts msg to channelID with the bot token.
	PostMessage(ctx context.Context, channelID string, msg format.SlackMessage) error
}

// SlackDeps provides dependencies for the Slack router.
type SlackDeps struct {
	Logger    *slog.Logger
	Explainer Explainer
	Formatter *format.Formatter
	Responder SlackResponder
	// BotUserID is the bot's own user id; channel joins by anyone else are
	// ignored.
	BotUserID string
}

// Slack routes Slack requests.
type Slack struct {
	deps  SlackDeps
	log   *slog.Logger
	codec codec.Slack
}

func NewSlack(deps SlackDeps) *Slack {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Slack{
		deps: deps,
		log:  deps.Logger.With("component", "slack_router"),
	}
}

// Handle dispatches one request. It acknowledges through ack before any slow
// work, so ctx must outlive the HTTP request.
func (s *Slack) Handle(ctx context.Context, ev SlackEvent, ack Acknowledger) {
	switch {
	case ev.Kind == SlackCommand && ev.Command == SlashCommandExplain:
		s.handleCommand(ctx, ev, ack)
	case ev.Kind == SlackShortcut && ev.CallbackID == ShortcutCallbackID:
		s.handleShortcut(ctx, ev, ack)
	case ev.Kind == SlackBlockAction && ev.ActionID == format.ExplainMoreID:
		s.handleExplainMore(ctx, ev, ack)
	case ev.Kind == SlackMemberJoined:
		s.ack(ctx, ack)
		s.handleMemberJoined(ctx, ev)
	default:
		s.log.DebugContext(ctx, "Ignoring unhandled request",
			"kind", ev.Kind, "command", ev.Command, "callback_id", ev.CallbackID, "action_id", ev.ActionID)
		s.ack(ctx, ack)
	}
}

func (s *Slack) ack(ctx context.Context, ack Acknowledger) {
	if err := ack.Ack(); err != nil {
		s.log.ErrorContext(ctx, "Failed to acknowledge request", "error", err)
	}
}

func (s *Slack) handleCommand(ctx context.Context, ev SlackEvent, ack Acknowledger) {
	log := s.log.With("handler", "command", "team_id", ev.TeamID, "user_id", ev.UserID)
	lc := NewLifecycle()

	input := text.Sanitize(ev.Text)
	if input == "" {
		err := apperrors.NewNoInputText("slash command carried no text")
		log.InfoContext(ctx, "Answering command without text", "code", apperrors.Code(err))
		if err := lc.ResolveNow(func() error {
			return ack.AckWith(s.deps.Formatter.SlackText(s.deps.Formatter.Messages().NoText))
		}); err != nil {
			log.ErrorContext(ctx, "Failed to deliver reply", "error", err)
		}
		return
	}
	s.explain(ctx, log, lc, ev, ack, input)
}

func (s *Slack) handleShortcut(ctx context.Context, ev SlackEvent, ack Acknowledger) {
	log := s.log.With("handler", "shortcut", "team_id", ev.TeamID, "user_id", ev.UserID)
	s.explain(ctx, log, NewLifecycle(), ev, ack, text.ShortcutText(ev.Text))
}

func (s *Slack) explain(ctx context.Context, log *slog.Logger, lc *Lifecycle, ev SlackEvent, ack Acknowledger, input string) {
	if err := lc.Acknowledge(ack.Ack); err != nil {
		log.ErrorContext(ctx, "Failed to acknowledge request", "error", err)
		return
	}

	if input == "" {
		err := apperrors.NewNoInputText("shortcut message carried no text")
		log.InfoContext(ctx, "Answering shortcut without text", "code", apperrors.Code(err))
		if err := lc.Resolve(func() error {
			return s.deps.Responder.Respond(ctx, ev.ResponseURL, s.deps.Formatter.SlackText(s.deps.Formatter.Messages().NoText), false)
		}); err != nil {
			log.ErrorContext(ctx, "Failed to deliver reply", "error", err)
		}
		return
	}

	log.InfoContext(ctx, "Explaining text", "text_length", len(input))
	turn, err := explainTurn(ctx, s.deps.Explainer, conversation.Turn{InputText: input}, conversation.PlatformSlack, ev.TeamID)
	s.resolve(ctx, log, lc, ev, turn, err, false)
}

func (s *Slack) handleExplainMore(ctx context.Context, ev SlackEvent, ack Acknowledger) {
	log := s.log.With("handler", "explain_more", "team_id", ev.TeamID, "user_id", ev.UserID)
	lc := NewLifecycle()

	if err := lc.Acknowledge(ack.Ack); err != nil {
		log.ErrorContext(ctx, "Failed to acknowledge request", "error", err)
		return
	}

	turn, err := recoverTurn(ctx, log, s.codec, ev.ActionValue)
	if err != nil {
		s.resolve(ctx, log, lc, ev, conversation.Turn{}, err, true)
		return
	}

	log.InfoContext(ctx, "Explaining further", "has_explanation", turn.HasExplanation())
	next, err := explainTurn(ctx, s.deps.Explainer, turn, conversation.PlatformSlack, ev.TeamID)
	s.resolve(ctx, log, lc, ev, next, err, true)
}

func (s *Slack) handleMemberJoined(ctx context.Context, ev SlackEvent) {
	if s.deps.BotUserID == "" || ev.UserID != s.deps.BotUserID {
		return
	}
	log := s.log.With("handler", "member_joined", "channel_id", ev.ChannelID)
	if err := s.deps.Responder.PostMessage(ctx, ev.ChannelID, s.deps.Formatter.SlackGreeting()); err != nil {
		log.ErrorContext(ctx, "Failed to post greeting", "error", err)
		return
	}
	log.InfoContext(ctx, "Posted greeting")
}

// resolve posts the turn, or the error notice when err is set, to the
// event's response URL.
func (s *Slack) resolve(ctx context.Context, log *slog.Logger, lc *Lifecycle, ev SlackEvent, turn conversation.Turn, err error, replaceOriginal bool) {
	var msg format.SlackMessage
	if err != nil {
		log.ErrorContext(ctx, "Explanation failed", "error", err, "code", apperrors.Code(err))
		msg = s.deps.Formatter.SlackError()
	} else {
		msg = s.deps.Formatter.Slack(turn, format.Affordance{ExplainMore: true})
	}
	if err := lc.Resolve(func() error {
		return s.deps.Responder.Respond(ctx, ev.ResponseURL, msg, replaceOriginal)
	}); err != nil {
		log.ErrorContext(ctx, "Failed to deliver reply", "error", err, "code", apperrors.Code(err))
	}
}
