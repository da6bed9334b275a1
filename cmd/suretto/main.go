package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/yuuyuu661/suretto/internal/bot"
	"github.com/yuuyuu661/suretto/internal/config"
	"github.com/yuuyuu661/suretto/internal/links"
	"github.com/yuuyuu661/suretto/internal/logger"
	"github.com/yuuyuu661/suretto/internal/ops"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Initialize(cfg.LogLevel, cfg.LogJSON)

	store, cleanup, err := newStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if err := store.Load(); err != nil {
		log.Fatal(fmt.Errorf("load link store: %w", err))
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal(fmt.Errorf("create discord session: %w", err))
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	orch := bot.New(cfg.SourceChannels, cfg.Routing, bot.NewDiscordPlatform(session), store)
	orch.Register(session)

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("logged in",
			"user", r.User.Username,
			"user_id", r.User.ID,
			"source_channels", cfg.SourceChannels,
		)
		if len(cfg.SourceChannels) == 0 {
			slog.Warn("SOURCE_TEXT_CHANNEL_IDS is empty, no messages will trigger threads")
		}
	})

	if err := session.Open(); err != nil {
		log.Fatal(fmt.Errorf("open gateway session: %w", err))
	}
	defer session.Close()

	var opsServer *http.Server
	if cfg.OpsAddr != "" {
		opsServer = ops.NewServer(cfg.OpsAddr, readyCheck(session, store))
		go func() {
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ops server failed", "addr", cfg.OpsAddr, "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	if opsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		opsServer.Shutdown(ctx)
	}
}

func newStore(cfg *config.Config) (links.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := links.NewPgStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect link store: %w", err)
		}
		return pg, func() { pg.Close() }, nil
	}
	return links.NewFileStore(cfg.LinksFile), func() {}, nil
}

func readyCheck(session *discordgo.Session, store links.Store) ops.ReadyCheck {
	return func(ctx context.Context) error {
		if session.State == nil || session.State.User == nil {
			return errors.New("gateway session not ready")
		}
		if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
			if err := pinger.Ping(ctx); err != nil {
				return fmt.Errorf("link store unavailable: %w", err)
			}
		}
		return nil
	}
}
