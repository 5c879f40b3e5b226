package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	discordrouter "github.com/jose-valero/soup-bot/internal/adapters/discord"
	"github.com/jose-valero/soup-bot/internal/adapters/httpinteractions"
	"github.com/jose-valero/soup-bot/internal/adapters/inspiro"
	"github.com/jose-valero/soup-bot/internal/app/command"
	"github.com/jose-valero/soup-bot/internal/app/cooldown"
	"github.com/jose-valero/soup-bot/internal/app/gallery"
	"github.com/jose-valero/soup-bot/internal/app/janitor"
	"github.com/jose-valero/soup-bot/internal/app/service"
	"github.com/jose-valero/soup-bot/internal/infra/config"
	"github.com/jose-valero/soup-bot/internal/infra/logging"
	"github.com/jose-valero/soup-bot/internal/infra/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metricas
	reg := metrics.NewRegistry()
	botMetrics := metrics.NewBotMetrics(reg)

	// Discord session (REST + gateway)
	s, err := discordgo.New(cfg.DiscordToken)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	// Estado en memoria
	limiter := cooldown.NewLimiter(clock)
	store := gallery.NewStore(clock, cfg.GalleryTimeout)
	metrics.RegisterGauges(reg, store.Len, limiter.Len)

	// Services
	inspire := inspiro.New(
		inspiro.WithBaseURL(cfg.InspiroBaseURL),
		inspiro.WithRate(cfg.InspiroRPS, 2),
		inspiro.WithObserver(botMetrics),
	)
	svcs := service.Services{
		Debug:     service.NewDebugService(discordrouter.Gateway{S: s}, metrics.NewProcessReader(reg), clock),
		EightBall: service.NewEightBall(nil),
		Inspire:   service.NewInspireService(inspire),
		Album:     service.NewAlbumService(store, gallery.IndexAll, gallery.MostRecentFirst),
	}

	registry := command.NewRegistry()
	if err := service.RegisterCommands(registry, svcs); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}

	disp := command.NewDispatcher(registry, limiter,
		command.WithTimeout(cfg.HandlerTimeout),
		command.WithWorkers(cfg.HandlerWorkers),
		command.WithLogger(logging.Component(logger, "dispatcher")),
		command.WithObserver(botMetrics),
		command.WithClock(clock),
	)
	defer disp.Close()

	// Router
	r := discordrouter.NewRouter(s, cfg.DiscordGuild, registry, disp, store,
		discordrouter.WithLogger(logging.Component(logger, "discord")),
		discordrouter.WithTransitionObserver(botMetrics),
		discordrouter.WithPressLimiter(limiter), // clicks comparten sweep y metricas con los comandos
		discordrouter.WithPresence(cfg.Presence),
	)
	r.Handlers()

	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	logger.Info("✅ connected", "user", s.State.User.Username, "id", s.State.User.ID)

	if err := r.Register(); err != nil {
		log.Fatalf("sincronizando comandos: %v", err)
	}

	// HTTP: health, metrics y (opcional) interacciones
	httpOpts := []httpinteractions.Option{
		httpinteractions.WithLogger(logging.Component(logger, "http")),
		httpinteractions.WithMetrics(metrics.Handler(reg)),
	}
	pub, _ := cfg.PublicKey() // ya validada en config.Load
	if pub != nil {
		httpOpts = append(httpOpts, httpinteractions.WithInteractions(pub, r, s))
	}
	web := httpinteractions.New(httpOpts...)
	go func() {
		if err := web.Start(cfg.HTTPAddr); err != nil {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	// Janitor: cooldowns y galerias vencidas
	jan := janitor.New(clock, cfg.SweepInterval, logging.Component(logger, "janitor")).
		Add("cooldowns", limiter).
		Add("galleries", store)
	go jan.Run(ctx)

	// Esperar señal
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := web.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
}
