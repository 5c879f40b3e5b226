package service

import (
	"context"
	"math/rand/v2"

	"github.com/jose-valero/soup-bot/internal/app/command"
)

var eightBallAnswers = []string{
	"It is certain.",
	"It is decidedly so.",
	"Without a doubt.",
	"Yes, definitely.",
	"You may rely on it.",
	"As I see it, yes.",
	"Most likely.",
	"Outlook good.",
	"Yes.",
	"Signs point to yes.",
	"Reply hazy, try again.",
	"Ask again later.",
	"Better not tell you now.",
	"Cannot predict now.",
	"Concentrate and ask again.",
	"Don't count on it.",
	"My reply is no.",
	"My sources say no.",
	"Outlook not so good.",
	"Very doubtful.",
}

type EightBall struct {
	pick func(n int) int
}

// NewEightBall: pick nil usa math/rand.
func NewEightBall(pick func(n int) int) *EightBall {
	if pick == nil {
		pick = rand.IntN
	}
	return &EightBall{pick: pick}
}

func (e *EightBall) Ask(_ context.Context, c *command.Ctx) (command.Action, error) {
	q := c.String("question")
	a := eightBallAnswers[e.pick(len(eightBallAnswers))]
	return command.Reply{Embed: &command.Embed{
		Title:       "🎱 " + truncate(q, 250),
		Description: a,
	}}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
