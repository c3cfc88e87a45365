// botd wires the device-command relay core together and runs the ops
// server. The chat transport is an external collaborator: it attaches to
// the CommandService built here and is deliberately not part of this
// repository.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pconlabs/control-bot/internal/api"
	"github.com/pconlabs/control-bot/internal/brain"
	"github.com/pconlabs/control-bot/internal/core/ports"
	"github.com/pconlabs/control-bot/internal/core/service"
	"github.com/pconlabs/control-bot/internal/identity"
	redisdb "github.com/pconlabs/control-bot/internal/infrastructure/db/redis"
	"github.com/pconlabs/control-bot/internal/infrastructure/queue"
	"github.com/pconlabs/control-bot/internal/pkg/config"
	"github.com/pconlabs/control-bot/internal/token"
	"github.com/pconlabs/control-bot/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brainClient := brain.New(brain.Config{
		Endpoint: cfg.BrainEndpoint(),
		Secret:   cfg.Brain.Secret,
		Timeout:  cfg.Brain.Timeout,
	}, log)

	var rdb *redis.Client
	var cache ports.IdentityCache
	if cfg.IdentityCache == "redis" {
		var err error
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		cache = identity.NewRedisCache(brainClient, rdb, cfg.IdentityTTL, log)
	} else {
		cache = identity.NewCache(brainClient, cfg.IdentityTTL, log)
	}

	gate := service.NewAccessGate(cache, log)
	codec := token.NewCodec(cfg.CallbackSecret)
	commands := service.NewCommandService(brainClient, gate, codec, log)

	dispatcher := queue.NewDispatcher(cfg.BroadcastWorkers, commands, log)
	dispatcher.Start(ctx)
	commands.UseQueue(dispatcher)

	e := api.NewRouter(brainClient, rdb)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()
	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("identity_cache", cfg.IdentityCache).
		Msg("control bot up")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
