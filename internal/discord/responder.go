package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/gapless/explainbot/internal/errors"
	"github.com/gapless/explainbot/internal/format"
	"github.com/gapless/explainbot/internal/router"
)

// responder answers interactions over the session's REST client.
type responder struct {
	session *discordgo.Session
}

func interactionOf(ev router.DiscordEvent) *discordgo.Interaction {
	return &discordgo.Interaction{ID: ev.InteractionID, AppID: ev.AppID, Token: ev.Token}
}

func (r responder) Acknowledge(ctx context.Context, ev router.DiscordEvent, placeholder string) error {
	if err := r.session.InteractionRespond(interactionOf(ev), ackResponse(placeholder), discordgo.WithContext(ctx)); err != nil {
		return apperrors.NewDeliveryFailed("acknowledge interaction", err)
	}
	return nil
}

func (r responder) Reply(ctx context.Context, ev router.DiscordEvent, msg format.DiscordMessage) error {
	if err := r.session.InteractionRespond(interactionOf(ev), replyResponse(msg), discordgo.WithContext(ctx)); err != nil {
		return apperrors.NewDeliveryFailed("reply to interaction", err)
	}
	return nil
}

func (r responder) EditReply(ctx context.Context, ev router.DiscordEvent, msg format.DiscordMessage) error {
	if _, err := r.session.InteractionResponseEdit(interactionOf(ev), replyEdit(msg), discordgo.WithContext(ctx)); err != nil {
		return apperrors.NewDeliveryFailed("edit interaction reply", err)
	}
	return nil
}

// ackResponse defers an ephemeral reply, showing placeholder when set.
func ackResponse(placeholder string) *discordgo.InteractionResponse {
	if placeholder == "" {
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: placeholder, Flags: discordgo.MessageFlagsEphemeral},
	}
}

func replyResponse(msg format.DiscordMessage) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    msg.Content,
			Components: msg.Components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	}
}

// replyEdit always sets components so a placeholder's are cleared.
func replyEdit(msg format.DiscordMessage) *discordgo.WebhookEdit {
	content := msg.Content
	components := msg.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{Content: &content, Components: &components}
}
