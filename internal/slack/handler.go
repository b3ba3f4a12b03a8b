package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/gapless/explainbot/internal/router"
)

type handler struct {
	router *router.Slack
	log    *slog.Logger
}

// Handle accepts every Slack delivery on one route and tells the kinds
// apart by body shape: JSON for the Events API, a form with a payload field
// for interactions, and a form with a command field for slash commands.
func (h *handler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		h.log.WarnContext(ctx, "Failed to read request body", "error", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var ev router.SlackEvent
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		var challenge string
		ev, challenge, err = parseEventsAPI(body)
		if err != nil {
			h.log.WarnContext(ctx, "Failed to parse events API body", "error", err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		if challenge != "" {
			c.String(http.StatusOK, challenge)
			return
		}
	} else {
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		ev, err = parseForm(c.Request, body)
		if err != nil {
			h.log.WarnContext(ctx, "Failed to parse form body", "error", err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
	}

	h.router.Handle(context.WithoutCancel(ctx), ev, &httpAck{c: c})
}

// parseEventsAPI returns the event carried by an Events API callback, or the
// challenge of a URL verification request.
func parseEventsAPI(body []byte) (router.SlackEvent, string, error) {
	outer, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return router.SlackEvent{}, "", err
	}

	ev := router.SlackEvent{Kind: router.SlackOther, TeamID: outer.TeamID}
	switch outer.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return router.SlackEvent{}, "", err
		}
		return ev, challenge.Challenge, nil
	case slackevents.CallbackEvent:
		if joined, ok := outer.InnerEvent.Data.(*slackevents.MemberJoinedChannelEvent); ok {
			ev.Kind = router.SlackMemberJoined
			ev.UserID = joined.User
			ev.ChannelID = joined.Channel
		}
	}
	return ev, "", nil
}

// parseForm reads interactive payloads and slash commands.
func parseForm(r *http.Request, body []byte) (router.SlackEvent, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return router.SlackEvent{}, err
	}

	if payload := values.Get("payload"); payload != "" {
		var cb slack.InteractionCallback
		if err := json.Unmarshal([]byte(payload), &cb); err != nil {
			return router.SlackEvent{}, err
		}
		return interactionEvent(cb), nil
	}

	if values.Get("command") != "" {
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			return router.SlackEvent{}, err
		}
		return router.SlackEvent{
			Kind:        router.SlackCommand,
			Command:     cmd.Command,
			Text:        cmd.Text,
			ResponseURL: cmd.ResponseURL,
			TeamID:      cmd.TeamID,
			ChannelID:   cmd.ChannelID,
			UserID:      cmd.UserID,
		}, nil
	}

	return router.SlackEvent{Kind: router.SlackOther}, nil
}

func interactionEvent(cb slack.InteractionCallback) router.SlackEvent {
	ev := router.SlackEvent{
		Kind:        router.SlackOther,
		CallbackID:  cb.CallbackID,
		ResponseURL: cb.ResponseURL,
		TeamID:      cb.Team.ID,
		ChannelID:   cb.Channel.ID,
		UserID:      cb.User.ID,
	}
	switch cb.Type {
	case slack.InteractionTypeMessageAction:
		ev.Kind = router.SlackShortcut
		ev.Text = cb.Message.Text
	case slack.InteractionTypeBlockActions:
		ev.Kind = router.SlackBlockAction
		if actions := cb.ActionCallback.BlockActions; len(actions) > 0 && actions[0] != nil {
			ev.ActionID = actions[0].ActionID
			ev.ActionValue = actions[0].Value
		}
	}
	return ev
}
