package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cfoust/sortie/pkg/bans"
	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/ingress"
	"github.com/cfoust/sortie/pkg/session"
	"github.com/cfoust/sortie/pkg/stats"
	"github.com/cfoust/sortie/pkg/utils"

	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog/log"
)

func loadConfig(configs []string) (*config.Config, error) {
	cfg, err := config.Process(configs)
	if err != nil {
		return nil, err
	}

	overrides, err := config.ParseOverrides()
	if err != nil {
		return nil, err
	}
	overrides.Apply(cfg)

	return cfg, nil
}

func banStore(settings config.BanSettings) bans.Store {
	if settings.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: settings.Redis.Addr,
		})
		key := settings.Redis.Key
		if key == "" {
			key = "sortie:bans"
		}
		return bans.NewRedisStore(client, key)
	}

	if settings.File != "" {
		return bans.FSStore(settings.File)
	}

	return &bans.MemoryStore{}
}

func serve(configs []string) error {
	cfg, err := loadConfig(configs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load sortie configuration")
	}

	serverConfig := cfg.Server

	app := utils.NewSession(context.Background())
	defer app.Shutdown()
	ctx := app.Ctx()

	banList := bans.New(banStore(serverConfig.Bans))
	if err := banList.Load(ctx); err != nil {
		return fmt.Errorf("failed to load bans: %w", err)
	}
	app.Go(banList.Run)

	var statsSink session.StatsSink
	var worker *stats.Worker
	if serverConfig.Stats.Enabled {
		db, err := stats.InitDB(serverConfig.Stats.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open stats database: %w", err)
		}

		var archive *stats.Archive
		if serverConfig.Stats.ArchiveDir != "" {
			archive = stats.NewArchive(serverConfig.Stats.ArchiveDir)
		}

		worker = stats.NewWorker(db, archive, 16)
		statsSink = worker
	}

	router := ingress.NewRouter(banList, serverConfig.Ingress.RateLimit)

	server := session.NewServer(ctx, session.Options{
		Settings:  serverConfig,
		Transport: router,
		Bots:      session.NamedBots{},
		Votes:     session.NoVotes{},
		Bans:      banList,
		Stats:     statsSink,
		Reload: func() (config.ServerSettings, error) {
			cfg, err := loadConfig(configs)
			if err != nil {
				return config.ServerSettings{}, err
			}
			return cfg.Server, nil
		},
	})
	router.Bind(server)

	if worker != nil {
		app.Go(worker.Run)
	}

	events := server.Events.Subscribe()
	app.Go(func(ctx context.Context) {
		defer events.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events.Recv():
				switch event.Kind {
				case session.EventLevelStarted:
					log.Info().Str("level", event.Level).Str("code", event.Code).Msg("level started")
				case session.EventGameOver:
					log.Info().Str("level", event.Level).Msg("game over")
				}
			}
		}
	})

	app.Go(func(context.Context) {
		server.Poll()
	})

	var desktop *ingress.ENetIngress
	if port := serverConfig.Ingress.Desktop.Port; port != 0 {
		desktop = ingress.NewENetIngress(router)
		if err := desktop.Serve(port, serverConfig.Ingress.Desktop.Peers); err != nil {
			return fmt.Errorf("failed to start desktop ingress: %w", err)
		}
		app.Go(desktop.Poll)
	}

	web := ingress.NewWSIngress(router)
	errc := make(chan error, 1)
	go func() {
		errc <- web.Serve(ctx, serverConfig.Ingress.Web.Port)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to serve")
		}
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	web.Shutdown(shutdownCtx)

	app.Shutdown()
	if desktop != nil {
		desktop.Shutdown()
	}

	return nil
}
