package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DiscordToken string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	DiscordGuild string `env:"DISCORD_GUILD_ID,required,notEmpty"`
	// opcional: habilita POST /interactions
	DiscordPublicKey string `env:"DISCORD_PUBLIC_KEY"`
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":8080"`
	Presence         string `env:"DISCORD_PRESENCE" envDefault:"x0rtex atm"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	GalleryTimeout time.Duration `env:"GALLERY_TIMEOUT" envDefault:"120s"`
	HandlerTimeout time.Duration `env:"HANDLER_TIMEOUT" envDefault:"12s"`
	HandlerWorkers int           `env:"HANDLER_WORKERS" envDefault:"8"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`

	InspiroBaseURL string  `env:"INSPIRO_BASE_URL" envDefault:"https://inspirobot.me"`
	InspiroRPS     float64 `env:"INSPIRO_RPS" envDefault:"2"`
}

// Load lee el entorno del proceso (main ya hizo godotenv.Load).
func Load() (Config, error) {
	return Parse(env.Options{})
}

func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if !strings.HasPrefix(cfg.DiscordToken, "Bot ") {
		cfg.DiscordToken = "Bot " + cfg.DiscordToken
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.GalleryTimeout <= 0:
		return fmt.Errorf("GALLERY_TIMEOUT must be positive, got %s", c.GalleryTimeout)
	case c.HandlerTimeout <= 0:
		return fmt.Errorf("HANDLER_TIMEOUT must be positive, got %s", c.HandlerTimeout)
	case c.HandlerWorkers < 1:
		return fmt.Errorf("HANDLER_WORKERS must be at least 1, got %d", c.HandlerWorkers)
	case c.SweepInterval <= 0:
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if _, err := c.PublicKey(); err != nil {
		return err
	}
	return nil
}

// PublicKey decodifica DISCORD_PUBLIC_KEY; nil si no esta seteada.
func (c Config) PublicKey() (ed25519.PublicKey, error) {
	if c.DiscordPublicKey == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(c.DiscordPublicKey)
	if err != nil || len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("DISCORD_PUBLIC_KEY must be %d hex-encoded bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(b), nil
}
