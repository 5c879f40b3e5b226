package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/app/command"
)

// BuildCommands traduce el arbol del registry a slash commands: grupos de
// primer nivel son comandos con subcomandos, grupos intermedios son
// subcommand groups y las hojas llevan las opciones.
func BuildCommands(reg *command.Registry) []*discordgo.ApplicationCommand {
	roots := reg.Roots()
	out := make([]*discordgo.ApplicationCommand, 0, len(roots))
	for _, n := range roots {
		cmd := &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        n.Name,
			Description: describe(n),
		}
		if n.Leaf() {
			cmd.Options = leafOptions(n)
		} else {
			cmd.Options = groupOptions(n)
		}
		out = append(out, cmd)
	}
	return out
}

func groupOptions(g *command.Node) []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for _, c := range g.Children() {
		o := &discordgo.ApplicationCommandOption{Name: c.Name, Description: describe(c)}
		if c.Leaf() {
			o.Type = discordgo.ApplicationCommandOptionSubCommand
			o.Options = leafOptions(c)
		} else {
			o.Type = discordgo.ApplicationCommandOptionSubCommandGroup
			o.Options = groupOptions(c)
		}
		out = append(out, o)
	}
	return out
}

func leafOptions(n *command.Node) []*discordgo.ApplicationCommandOption {
	var out []*discordgo.ApplicationCommandOption
	for _, o := range n.Options {
		desc := o.Description
		if desc == "" {
			desc = o.Name
		}
		out = append(out, &discordgo.ApplicationCommandOption{
			Type:        optionType(o.Type),
			Name:        o.Name,
			Description: truncate(desc, maxDescription),
			Required:    o.Required,
		})
	}
	return out
}

func optionType(t command.OptionType) discordgo.ApplicationCommandOptionType {
	switch t {
	case command.OptInteger:
		return discordgo.ApplicationCommandOptionInteger
	case command.OptBoolean:
		return discordgo.ApplicationCommandOptionBoolean
	case command.OptAttachment:
		return discordgo.ApplicationCommandOptionAttachment
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

// Discord exige 1..100 caracteres
func describe(n *command.Node) string {
	if n.Description == "" {
		return n.Name
	}
	return truncate(n.Description, maxDescription)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
