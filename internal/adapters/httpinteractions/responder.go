package httpinteractions

import (
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/adapters/discord"
)

var errNoREST = errors.New("no REST session for interaction followups")

// responder convierte la primera respuesta en el cuerpo HTTP; el resto va
// por REST con el token de la interaccion.
type responder struct {
	rest  discord.Responder
	first chan *discordgo.InteractionResponse

	mu       sync.Mutex
	answered bool
}

func newResponder(rest discord.Responder) *responder {
	return &responder{rest: rest, first: make(chan *discordgo.InteractionResponse, 1)}
}

func (r *responder) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	r.mu.Lock()
	if !r.answered {
		r.answered = true
		r.mu.Unlock()
		r.first <- resp
		return nil
	}
	r.mu.Unlock()
	if r.rest == nil {
		return errNoREST
	}
	return r.rest.InteractionRespond(i, resp, options...)
}

func (r *responder) FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if r.rest == nil {
		return nil, errNoREST
	}
	return r.rest.FollowupMessageCreate(i, wait, data, options...)
}

func (r *responder) InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if r.rest == nil {
		return nil, errNoREST
	}
	return r.rest.InteractionResponseEdit(i, newresp, options...)
}

// timeout resuelve la carrera con el handler: si ya contesto se usa esa
// respuesta, si no se difiere y late es true.
func (r *responder) timeout(t discordgo.InteractionType) (resp *discordgo.InteractionResponse, late bool) {
	r.mu.Lock()
	if r.answered {
		r.mu.Unlock()
		return <-r.first, false
	}
	r.answered = true
	r.mu.Unlock()
	kind := discordgo.InteractionResponseDeferredChannelMessageWithSource
	if t == discordgo.InteractionMessageComponent || t == discordgo.InteractionModalSubmit {
		kind = discordgo.InteractionResponseDeferredMessageUpdate
	}
	return &discordgo.InteractionResponse{Type: kind}, true
}
