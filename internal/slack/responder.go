package slack

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	apperrors "github.com/gapless/explainbot/internal/errors"
	"github.com/gapless/explainbot/internal/format"
)

// responder delivers replies through response URLs and the Web API.
type responder struct {
	api        *slack.Client
	httpClient *http.Client
}

func (r responder) Respond(ctx context.Context, responseURL string, msg format.SlackMessage, replaceOriginal bool) error {
	if responseURL == "" {
		return apperrors.NewDeliveryFailed("request has no response URL", nil)
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, r.httpClient, webhookMessage(msg, replaceOriginal)); err != nil {
		return apperrors.NewDeliveryFailed("post to response URL", err)
	}
	return nil
}

func (r responder) PostMessage(ctx context.Context, channelID string, msg format.SlackMessage) error {
	_, _, err := r.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionBlocks(msg.Blocks...),
	)
	if err != nil {
		return apperrors.NewDeliveryFailed("post channel message", err)
	}
	return nil
}

func webhookMessage(msg format.SlackMessage, replaceOriginal bool) *slack.WebhookMessage {
	wm := &slack.WebhookMessage{
		Text:            msg.Text,
		ResponseType:    slack.ResponseTypeEphemeral,
		ReplaceOriginal: replaceOriginal,
	}
	if len(msg.Blocks) > 0 {
		wm.Blocks = &slack.Blocks{BlockSet: msg.Blocks}
	}
	return wm
}

// ephemeralResponse is the synchronous response body of a slash command.
type ephemeralResponse struct {
	ResponseType string        `json:"response_type"`
	Text         string        `json:"text"`
	Blocks       []slack.Block `json:"blocks,omitempty"`
}

func ephemeralBody(msg format.SlackMessage) ephemeralResponse {
	return ephemeralResponse{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         msg.Text,
		Blocks:       msg.Blocks,
	}
}

// httpAck acknowledges a request on its HTTP response. The response is
// flushed immediately so Slack sees it while the handler keeps working.
type httpAck struct {
	c    *gin.Context
	sent bool
}

func (a *httpAck) Ack() error {
	if a.sent {
		return apperrors.NewDeliveryFailed("request already acknowledged", nil)
	}
	a.sent = true
	a.c.Header("Content-Length", "0")
	a.c.Status(http.StatusOK)
	a.c.Writer.WriteHeaderNow()
	a.c.Writer.Flush()
	return nil
}

func (a *httpAck) AckWith(msg format.SlackMessage) error {
	if a.sent {
		return apperrors.NewDeliveryFailed("request already acknowledged", nil)
	}
	a.sent = true
	a.c.JSON(http.StatusOK, ephemeralBody(msg))
	a.c.Writer.Flush()
	return nil
}
