package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/app/cooldown"
)

// MaxAlbumAttachments es 1 obligatorio + 9 opcionales.
const MaxAlbumAttachments = 10

type Services struct {
	Debug     *DebugService
	EightBall *EightBall
	Inspire   *InspireService
	Album     *AlbumService
}

func every(window time.Duration, calls int, bucket cooldown.BucketKind) *cooldown.Policy {
	return &cooldown.Policy{Window: window, MaxCalls: calls, Bucket: bucket}
}

// RegisterCommands declara el arbol de comandos del bot.
func RegisterCommands(reg *command.Registry, s Services) error {
	albumOpts := []command.OptionSpec{
		{Name: "title", Description: "Album title", Type: command.OptString, Required: true},
		{Name: "attachment_1", Description: "First image", Type: command.OptAttachment, Required: true},
	}
	for i := 2; i <= MaxAlbumAttachments; i++ {
		albumOpts = append(albumOpts, command.OptionSpec{
			Name:        "attachment_" + strconv.Itoa(i),
			Description: "Another image",
			Type:        command.OptAttachment,
		})
	}

	leaves := []struct {
		path []string
		spec command.LeafSpec
	}{
		{[]string{"debug", "ping"}, command.LeafSpec{
			Description: "Gateway heartbeat latency",
			Ephemeral:   true,
			Handler:     s.Debug.Ping,
		}},
		{[]string{"debug", "stats"}, command.LeafSpec{
			Description: "Process uptime, CPU, memory and guild count",
			Ephemeral:   true,
			Cooldown:    every(5*time.Second, 1, cooldown.BucketGuild),
			Handler:     s.Debug.Stats,
		}},
		{[]string{"8ball"}, command.LeafSpec{
			Description: "Ask the magic 8-ball",
			Options: []command.OptionSpec{
				{Name: "question", Description: "Your question", Type: command.OptString, Required: true, Rest: true},
			},
			Cooldown: every(3*time.Second, 1, cooldown.BucketUser),
			Handler:  s.EightBall.Ask,
		}},
		{[]string{"quote"}, command.LeafSpec{
			Description: "A freshly generated inspirational quote",
			Cooldown:    every(5*time.Second, 1, cooldown.BucketGuild),
			Handler:     s.Inspire.Quote,
		}},
		{[]string{"flow"}, command.LeafSpec{
			Description: "A short mindfulness flow",
			Cooldown:    every(10*time.Second, 1, cooldown.BucketGuild),
			Handler:     s.Inspire.Flow,
		}},
		{[]string{"album"}, command.LeafSpec{
			Description: "Turn uploaded images into a paginated album",
			Options:     albumOpts,
			Cooldown:    every(30*time.Second, 1, cooldown.BucketUser),
			Handler:     s.Album.Create,
		}},
	}

	for _, l := range leaves {
		if err := reg.Register(l.path, l.spec); err != nil {
			return fmt.Errorf("register %v: %w", l.path, err)
		}
	}
	return reg.Describe([]string{"debug"}, "Bot diagnostics")
}
