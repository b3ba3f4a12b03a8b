package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gapless/explainbot/internal/codec"
	"github.com/gapless/explainbot/internal/conversation"
)

// Explainer produces explanations. *explainer.Client implements it.
type Explainer interface {
	Explain(ctx context.Context, text string, platform conversation.Platform, serverID string) (string, error)
	ExplainMore(ctx context.Context, text, previous string, platform conversation.Platform, serverID string) (string, error)
}

// explainTurn asks for the next explanation of turn: explain-more when turn
// already carries an explanation, explain otherwise.
func explainTurn(ctx context.Context, e Explainer, turn conversation.Turn, platform conversation.Platform, serverID string) (conversation.Turn, error) {
	var (
		result string
		err    error
	)
	if turn.HasExplanation() {
		result, err = e.ExplainMore(ctx, turn.InputText, turn.Explanation, platform, serverID)
	} else {
		result, err = e.Explain(ctx, turn.InputText, platform, serverID)
	}
	if err != nil {
		return conversation.Turn{}, err
	}
	return turn.Next(result), nil
}

// recoverTurn decodes the turn stored in a follow-up carrier. Missing markers
// are logged and tolerated; the recovered raw text is explained afresh.
func recoverTurn(ctx context.Context, log *slog.Logger, c codec.Codec, carrier string) (conversation.Turn, error) {
	turn, err := c.Decode(carrier)
	if errors.Is(err, codec.ErrMarkersMissing) {
		log.WarnContext(ctx, "Follow-up carrier has no turn markers, explaining raw content", "platform", c.Platform())
		return turn, nil
	}
	return turn, err
}
