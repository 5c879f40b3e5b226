package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/app/gallery"
)

const (
	galleryPrefix = "gallery"
	actionJump    = "jump"
	actionStop    = "stop"
	jumpInputID   = "page"
)

// custom id: gallery:<session>:<accion>
func galleryID(sessionID, action string) string {
	return galleryPrefix + ":" + sessionID + ":" + action
}

func parseGalleryID(customID string) (sessionID, action string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != galleryPrefix || parts[1] == "" {
		return "", "", false
	}
	switch parts[2] {
	case actionJump, actionStop:
	default:
		if _, ok := gallery.ParseNav(parts[2]); !ok {
			return "", "", false
		}
	}
	return parts[1], parts[2], true
}

func galleryEmbed(v gallery.View) *discordgo.MessageEmbed {
	footer := fmt.Sprintf("Image #%d", v.Page.Media.Index)
	if v.Page.Media.Filename != "" {
		footer += " · " + v.Page.Media.Filename
	}
	return &discordgo.MessageEmbed{
		Title:  v.Page.Title,
		Color:  colorEmbed,
		Image:  &discordgo.MessageEmbedImage{URL: v.Page.Media.URL},
		Footer: &discordgo.MessageEmbedFooter{Text: footer},
	}
}

// renderGallery arma el embed y los botones de una vista. closed deja todo
// deshabilitado (sesion cerrada o vencida).
func renderGallery(v gallery.View, closed bool) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	id := v.SessionID
	btn := func(action, label string, style discordgo.ButtonStyle, disabled bool) discordgo.Button {
		return discordgo.Button{
			CustomID: galleryID(id, action),
			Label:    label,
			Style:    style,
			Disabled: closed || disabled,
		}
	}

	nav := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		btn(string(gallery.NavFirst), "⏮", discordgo.SecondaryButton, v.First()),
		btn(string(gallery.NavPrev), "◀", discordgo.SecondaryButton, v.First()),
		btn(actionJump, fmt.Sprintf("%d/%d", v.Index+1, v.Total), discordgo.PrimaryButton, v.Total < 2),
		btn(string(gallery.NavNext), "▶", discordgo.SecondaryButton, v.Last()),
		btn(string(gallery.NavLast), "⏭", discordgo.SecondaryButton, v.Last()),
	}}
	comps := []discordgo.MessageComponent{nav}
	if !closed {
		comps = append(comps, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			btn(actionStop, "Close", discordgo.DangerButton, false),
		}})
	}
	return galleryEmbed(v), comps
}

func jumpModal(v gallery.View) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: galleryID(v.SessionID, actionJump),
			Title:    "Go to image",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    jumpInputID,
						Label:       fmt.Sprintf("Image number (1-%d)", v.Total),
						Style:       discordgo.TextInputShort,
						Placeholder: fmt.Sprintf("%d", v.Index+1),
						Required:    true,
						MinLength:   1,
						MaxLength:   4,
					},
				}},
			},
		},
	}
}

// disableAll devuelve una copia de comps con todos los botones deshabilitados.
// Sirve para mensajes cuya sesion ya no existe en memoria.
func disableAll(comps []discordgo.MessageComponent) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(comps))
	for _, c := range comps {
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			out = append(out, discordgo.ActionsRow{Components: disableAll(row.Components)})
		case discordgo.ActionsRow:
			out = append(out, discordgo.ActionsRow{Components: disableAll(row.Components)})
		case *discordgo.Button:
			b := *row
			b.Disabled = true
			out = append(out, b)
		case discordgo.Button:
			row.Disabled = true
			out = append(out, row)
		default:
			out = append(out, c)
		}
	}
	return out
}

// modal: un ActionsRow con un TextInput
func modalValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if in, ok := inner.(*discordgo.TextInput); ok && in.CustomID == id {
				return in.Value
			}
		}
	}
	return ""
}
