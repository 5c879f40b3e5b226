package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/app/gallery"
)

func (r *Router) handleMessageComponent(rs Responder, i *discordgo.Interaction, log *slog.Logger) {
	data := i.MessageComponentData()
	sessionID, action, ok := parseGalleryID(data.CustomID)
	if !ok {
		log.Warn("unknown component", "custom_id", data.CustomID)
		_ = respondEphemeral(rs, i, msgGeneric)
		return
	}
	log = log.With("session", sessionID, "action", action)
	defer step(log, "component."+action)()

	if !r.allowPress(i) {
		r.obs.ObserveTransition(action, "throttled")
		_ = respondEphemeral(rs, i, msgSlowDown)
		return
	}

	var (
		v   gallery.View
		err error
	)
	switch action {
	case actionStop:
		v, err = r.store.Close(sessionID)
		if err == nil {
			r.untrack(sessionID)
			r.obs.ObserveTransition(action, "ok")
			embed, comps := renderGallery(v, true)
			r.respondOrLog(log, updateMessage(rs, i, embed, comps))
			return
		}

	case actionJump:
		v, err = r.store.Current(sessionID)
		if err == nil {
			r.obs.ObserveTransition(action, "prompt")
			r.respondOrLog(log, rs.InteractionRespond(i, jumpModal(v)))
			return
		}

	default:
		nav, _ := gallery.ParseNav(action)
		v, err = r.store.Transition(sessionID, nav)
		if err == nil {
			r.obs.ObserveTransition(action, "ok")
			embed, comps := renderGallery(v, false)
			r.respondOrLog(log, updateMessage(rs, i, embed, comps))
			return
		}
	}

	r.obs.ObserveTransition(action, outcomeOf(err))
	if errors.Is(err, gallery.ErrSessionExpired) {
		r.expired(rs, i, log)
		return
	}
	log.Error("gallery transition failed", "err", err)
	_ = respondEphemeral(rs, i, msgGeneric)
}

func (r *Router) handleModalSubmit(rs Responder, i *discordgo.Interaction, log *slog.Logger) {
	data := i.ModalSubmitData()
	sessionID, action, ok := parseGalleryID(data.CustomID)
	if !ok || action != actionJump {
		log.Warn("unknown modal", "custom_id", data.CustomID)
		_ = respondEphemeral(rs, i, msgGeneric)
		return
	}
	log = log.With("session", sessionID)

	n, convErr := strconv.Atoi(strings.TrimSpace(modalValue(data, jumpInputID)))
	var (
		v   gallery.View
		err error
	)
	if convErr != nil {
		// no es un numero: se trata como fuera de rango si la sesion sigue viva
		if _, err = r.store.Current(sessionID); err == nil {
			err = gallery.ErrOutOfRange
		}
	} else {
		v, err = r.store.JumpTo(sessionID, n-1)
	}

	r.obs.ObserveTransition(actionJump, outcomeOf(err))
	switch {
	case err == nil:
		embed, comps := renderGallery(v, false)
		r.respondOrLog(log, updateMessage(rs, i, embed, comps))
	case errors.Is(err, gallery.ErrOutOfRange):
		total := 0
		if cur, cerr := r.store.Current(sessionID); cerr == nil {
			total = cur.Total
		}
		r.respondOrLog(log, respondEphemeral(rs, i, fmt.Sprintf("⚠️ Pick a number between 1 and %d.", total)))
	case errors.Is(err, gallery.ErrSessionExpired):
		r.expired(rs, i, log)
	default:
		log.Error("gallery jump failed", "err", err)
		_ = respondEphemeral(rs, i, msgGeneric)
	}
}

// expired deshabilita los botones del mensaje tocado y avisa en privado.
func (r *Router) expired(rs Responder, i *discordgo.Interaction, log *slog.Logger) {
	if i.Message == nil {
		r.respondOrLog(log, respondEphemeral(rs, i, msgExpired))
		return
	}
	err := rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: disableAll(i.Message.Components),
		},
	})
	if err != nil {
		log.Warn("could not disable expired message", "err", err)
		return
	}
	_, err = followup(rs, i, &discordgo.WebhookParams{Content: msgExpired}, true)
	r.respondOrLog(log, err)
}

func (r *Router) allowPress(i *discordgo.Interaction) bool {
	scope := cooldown.ScopeFor(pressPolicy.Bucket, cooldown.Subject{
		UserID:    userID(i),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	})
	dec, err := r.press.CheckAndRecord(galleryPrefix, scope, pressPolicy)
	return err == nil && dec.Allowed
}

func (r *Router) respondOrLog(log *slog.Logger, err error) {
	if err != nil {
		log.Warn("interaction response failed", "err", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gallery.ErrSessionExpired):
		return "expired"
	case errors.Is(err, gallery.ErrOutOfRange):
		return "out_of_range"
	default:
		return "error"
	}
}
