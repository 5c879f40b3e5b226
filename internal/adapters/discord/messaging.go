package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// Responder es lo que usamos de *discordgo.Session para contestar una
// interaccion. El endpoint HTTP lo implementa capturando la primera respuesta.
type Responder interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// MessageEditor edita mensajes ya publicados (galerias vencidas).
type MessageEditor interface {
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func respondEphemeral(rs Responder, i *discordgo.Interaction, msg string) error {
	return rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// Defer (para trabajos >3s). El primer followup reemplaza el "pensando…".
func deferReply(rs Responder, i *discordgo.Interaction, ephemeral bool) error {
	return rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
}

func followup(rs Responder, i *discordgo.Interaction, p *discordgo.WebhookParams, ephemeral bool) (*discordgo.Message, error) {
	p.Flags |= flags(ephemeral)
	msg, err := rs.FollowupMessageCreate(i, true, p)
	if err == nil {
		return msg, nil
	}

	// Fallback solo si todavia no hay respuesta (webhook desconocido)
	var reqErr *discordgo.RESTError
	if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == discordgo.ErrCodeUnknownWebhook {
		return nil, rs.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    p.Content,
				Embeds:     p.Embeds,
				Components: p.Components,
				Flags:      p.Flags,
			},
		})
	}
	return nil, err
}

// updateMessage reemplaza el mensaje que tiene el boton presionado.
func updateMessage(rs Responder, i *discordgo.Interaction, embed *discordgo.MessageEmbed, comps []discordgo.MessageComponent) error {
	return rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: comps,
		},
	})
}
