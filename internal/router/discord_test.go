package router_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/conversation"
	"github.com/gapless/explainbot/internal/format"
	"github.com/gapless/explainbot/internal/router"
)

type discordFixture struct {
	rec       *recorder
	service   *stubService
	responder *fakeDiscordResponder
	router    *router.Discord
}

func newDiscordFixture(t *testing.T, status int, body string) *discordFixture {
	t.Helper()
	rec := &recorder{}
	f := &discordFixture{
		rec:       rec,
		service:   newStubService(t, rec, status, body),
		responder: &fakeDiscordResponder{rec: rec},
	}
	f.router = router.NewDiscord(router.DiscordDeps{
		Logger:    discardLogger(),
		Explainer: f.service.Client(t),
		Formatter: newFormatter(),
		Responder: f.responder,
		SetupURL:  "https://example.com/setup",
		DictURL:   "https://example.com/dict",
	})
	return f
}

func explainMoreButtons(components []discordgo.MessageComponent) int {
	n := 0
	for _, c := range components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if b, ok := inner.(discordgo.Button); ok && b.CustomID == format.ExplainMoreID {
				n++
			}
		}
	}
	return n
}

func TestDiscordExplainCommand(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind:    router.DiscordChatCommand,
		Name:    router.CommandExplain,
		Text:    "Hello World",
		GuildID: "guild-1",
	})

	assert.Equal(t, []string{"ack", "service", "edit"}, f.rec.Steps())
	assert.Empty(t, f.responder.placeholder)

	calls := f.service.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/explain", calls[0].Path)
	assert.Equal(t, map[string]any{"text": "Hello World", "platform": "discord", "server_id": "guild-1"}, calls[0].Body)

	require.Len(t, f.responder.edits, 1)
	reply := f.responder.edits[0]
	assert.Contains(t, reply.Content, "Hello World")
	assert.Contains(t, reply.Content, "A greeting.")
	assert.Equal(t, 1, explainMoreButtons(reply.Components))
}

func TestDiscordMessageCommandUsesTargetContent(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind: router.DiscordMessageCommand,
		Name: router.CommandExplainMessage,
		Text: "  Hello World\r\n",
	})

	calls := f.service.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Hello World", calls[0].Body["text"])
	require.Len(t, f.responder.edits, 1)
	assert.Equal(t, 1, explainMoreButtons(f.responder.edits[0].Components))
}

func TestDiscordExplainMoreFollowUp(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A more detailed greeting."}`)
	previous := newFormatter().Discord(
		conversation.Turn{InputText: "Hello World", Explanation: "A greeting."},
		format.Affordance{ExplainMore: true},
	)

	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind:           router.DiscordButton,
		CustomID:       format.ExplainMoreID,
		MessageContent: previous.Content,
	})

	assert.Equal(t, []string{"ack", "service", "edit"}, f.rec.Steps())
	assert.Equal(t, config.DefaultMessages.Loading, f.responder.placeholder)

	calls := f.service.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/explain-more", calls[0].Path)
	assert.Equal(t, "Hello World", calls[0].Body["text"])
	assert.Equal(t, "A greeting.", calls[0].Body["result"])

	reply := f.responder.edits[0]
	assert.Contains(t, reply.Content, "Hello World")
	assert.Contains(t, reply.Content, "A more detailed greeting.")
	assert.Equal(t, 1, explainMoreButtons(reply.Components))
}

func TestDiscordExplainMoreWithoutMarkersExplainsRawContent(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind:           router.DiscordButton,
		CustomID:       format.ExplainMoreID,
		MessageContent: "Hello World",
	})

	calls := f.service.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/explain", calls[0].Path)
	assert.Equal(t, "Hello World", calls[0].Body["text"])
	assert.NotContains(t, calls[0].Body, "result")
}

func TestDiscordExplainMoreUndecodableCarrier(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind:           router.DiscordButton,
		CustomID:       format.ExplainMoreID,
		MessageContent: "Input Text:\n```md\n\n```\n\nExplanation:\n```md\nA greeting.\n```",
	})

	assert.Empty(t, f.service.Calls())
	assert.Equal(t, []string{"ack", "edit"}, f.rec.Steps())
	assert.Equal(t, config.DefaultMessages.Error, f.responder.edits[0].Content)
}

func TestDiscordEmptyTextRepliesWithoutService(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind: router.DiscordChatCommand,
		Name: router.CommandExplain,
		Text: " \u200b ",
	})

	assert.Equal(t, []string{"reply"}, f.rec.Steps())
	assert.Empty(t, f.service.Calls())
	require.Len(t, f.responder.replies, 1)
	assert.Equal(t, config.DefaultMessages.NoText, f.responder.replies[0].Content)
}

func TestDiscordServiceFailureRepliesWithError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "explicit error", status: http.StatusOK, body: `{"error":"model unavailable"}`},
		{name: "missing result", status: http.StatusOK, body: `{}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newDiscordFixture(t, tt.status, tt.body)
			f.router.Handle(context.Background(), router.DiscordEvent{
				Kind: router.DiscordChatCommand,
				Name: router.CommandExplain,
				Text: "Hello World",
			})

			assert.Len(t, f.service.Calls(), 1, "failures are not retried")
			require.Len(t, f.responder.edits, 1)
			assert.Equal(t, config.DefaultMessages.Error, f.responder.edits[0].Content)
			assert.Empty(t, f.responder.edits[0].Components)
		})
	}
}

func TestDiscordStaticLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		want    string
	}{
		{command: router.CommandSetup, want: "https://example.com/setup"},
		{command: router.CommandDict, want: "https://example.com/dict"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			t.Parallel()

			f := newDiscordFixture(t, http.StatusOK, `{"result":"unused"}`)
			f.router.Handle(context.Background(), router.DiscordEvent{Kind: router.DiscordChatCommand, Name: tt.command})

			assert.Equal(t, []string{"reply"}, f.rec.Steps())
			assert.Empty(t, f.service.Calls())
			assert.Equal(t, tt.want, f.responder.replies[0].Content)
		})
	}
}

func TestDiscordIgnoresUnknownInteractions(t *testing.T) {
	t.Parallel()

	events := []router.DiscordEvent{
		{Kind: router.DiscordOther},
		{Kind: router.DiscordChatCommand, Name: "ping"},
		{Kind: router.DiscordMessageCommand, Name: "Translate"},
		{Kind: router.DiscordButton, CustomID: "something_else"},
		{Kind: router.DiscordChatCommand, Name: router.CommandExplainMessage},
	}

	f := newDiscordFixture(t, http.StatusOK, `{"result":"unused"}`)
	for _, ev := range events {
		f.router.Handle(context.Background(), ev)
	}

	assert.Empty(t, f.rec.Steps())
	assert.Empty(t, f.service.Calls())
}

func TestDiscordAcknowledgeFailureStopsHandling(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.responder.ackErr = errors.New("unknown interaction")

	f.router.Handle(context.Background(), router.DiscordEvent{
		Kind: router.DiscordChatCommand,
		Name: router.CommandExplain,
		Text: "Hello World",
	})

	assert.Equal(t, []string{"ack"}, f.rec.Steps())
	assert.Empty(t, f.service.Calls())
}

func TestDiscordDeliveryFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	f := newDiscordFixture(t, http.StatusOK, `{"result":"A greeting."}`)
	f.responder.editErr = errors.New("webhook expired")

	assert.NotPanics(t, func() {
		f.router.Handle(context.Background(), router.DiscordEvent{
			Kind: router.DiscordChatCommand,
			Name: router.CommandExplain,
			Text: "Hello World",
		})
	})
	assert.Equal(t, []string{"ack", "service", "edit"}, f.rec.Steps())
}
