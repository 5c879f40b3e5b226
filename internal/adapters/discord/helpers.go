package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/app/command"
)

const (
	msgGeneric     = "❌ Something went wrong running that command."
	msgExpired     = "⌛ This album has expired. Run `/album` again to browse it."
	msgSlowDown    = "⏳ Easy on the buttons."
	colorEmbed     = 0x5865F2
	maxDescription = 100
)

// mm:ss, redondeado hacia arriba
func fmtRemain(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func failText(f command.Fail) string {
	switch f.Reason {
	case command.ReasonUnknownCommand:
		return "❓ Unknown command."
	case command.ReasonMissingOption:
		return fmt.Sprintf("⚠️ Missing option `%s`.", f.Detail)
	case command.ReasonRateLimited:
		return fmt.Sprintf("⏳ Slow down! Try again in **%s**.", fmtRemain(f.RetryAfter))
	case command.ReasonInsufficientMedia:
		if f.Detail != "" {
			return "⚠️ " + f.Detail
		}
		return "⚠️ Not enough images for an album."
	case command.ReasonOutOfRange:
		return "⚠️ That page doesn't exist."
	case command.ReasonSessionExpired:
		return msgExpired
	}
	if f.Detail != "" {
		return "❌ " + f.Detail
	}
	return msgGeneric
}

func toEmbed(e *command.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       colorEmbed,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

func replyParams(r command.Reply) *discordgo.WebhookParams {
	p := &discordgo.WebhookParams{Content: r.Content}
	if r.Embed != nil {
		p.Embeds = append(p.Embeds, toEmbed(r.Embed))
	}
	// la imagen remota va como embed, Discord la previsualiza
	if r.AttachmentURL != "" {
		p.Embeds = append(p.Embeds, &discordgo.MessageEmbed{
			Color: colorEmbed,
			Image: &discordgo.MessageEmbedImage{URL: r.AttachmentURL},
		})
	}
	return p
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
