package command

import (
	"context"
	"log/slog"

	"github.com/samber/mo"

	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/domain"
)

// Invocation is a decoded command event.
type Invocation struct {
	Path []string
	// Values are string, int64, bool or domain.RawAttachment.
	Options     map[string]any
	UserID      string
	GuildID     mo.Option[string]
	ChannelID   string
	Attachments []domain.RawAttachment
}

func (inv Invocation) Subject() cooldown.Subject {
	return cooldown.Subject{
		UserID:    inv.UserID,
		GuildID:   inv.GuildID.OrEmpty(),
		ChannelID: inv.ChannelID,
	}
}

type Handler func(ctx context.Context, c *Ctx) (Action, error)

// Ctx is what a handler sees: the invocation with its options normalized
// against the resolved command.
type Ctx struct {
	Log  *slog.Logger
	Node *Node
	Inv  Invocation

	values map[string]any
}

func (c *Ctx) String(name string) string {
	s, _ := c.values[name].(string)
	return s
}

func (c *Ctx) Int(name string) (int64, bool) {
	n, ok := c.values[name].(int64)
	return n, ok
}

func (c *Ctx) Bool(name string) bool {
	b, _ := c.values[name].(bool)
	return b
}

func (c *Ctx) Attachment(name string) (domain.RawAttachment, bool) {
	a, ok := c.values[name].(domain.RawAttachment)
	return a, ok
}

// Attachments returns the supplied attachment options in declaration order.
// Commands without attachment options get the raw list of the event.
func (c *Ctx) Attachments() []domain.RawAttachment {
	var out []domain.RawAttachment
	declared := false
	for _, o := range c.Node.Options {
		if o.Type != OptAttachment {
			continue
		}
		declared = true
		if a, ok := c.Attachment(o.Name); ok {
			out = append(out, a)
		}
	}
	if !declared {
		return c.Inv.Attachments
	}
	return out
}
