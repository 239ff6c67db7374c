package main

import (
	"context"
	"os"

	"github.com/atroinina/sales-pipeline/internal/trigger"
	"github.com/atroinina/sales-pipeline/pkg/client"
	"github.com/atroinina/sales-pipeline/pkg/config"
	"github.com/atroinina/sales-pipeline/pkg/convert"
	"github.com/atroinina/sales-pipeline/pkg/logging"
	"github.com/atroinina/sales-pipeline/pkg/pagination"
	"github.com/atroinina/sales-pipeline/pkg/runstate"
	"github.com/hamba/avro/v2/ocf"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the components built from one configuration.
type app struct {
	cfg       config.Config
	logger    zerolog.Logger
	engine    *pagination.Engine
	converter *convert.Converter

	redis *redis.Client
	store *runstate.Store
}

// newApp loads the configuration and wires every component. The run ledger
// is optional: when REDIS_URL is unset or Redis cannot be reached, runs are
// simply not recorded.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("sales-pipeline")

	clientCfg := client.DefaultConfig(cfg.SalesAPIURL, cfg.AuthToken)
	clientCfg.Timeout = cfg.HTTPTimeout
	salesClient, err := client.New(clientCfg)
	if err != nil {
		return nil, err
	}

	converter, err := convert.New(convert.Config{
		SchemaPath: cfg.SchemaPath,
		Codec:      ocf.CodecName(cfg.AvroCodec),
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		engine:    pagination.NewEngine(salesClient, pagination.DefaultConfig()),
		converter: converter,
	}

	if cfg.RedisURL != "" {
		redisClient, err := runstate.Dial(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Run ledger unavailable, runs will not be recorded")
		} else {
			a.redis = redisClient
			a.store = runstate.NewStore(redisClient, cfg.RunTTL)
			logger.Info().Dur("ttl", cfg.RunTTL).Msg("Run ledger enabled")
		}
	}

	return a, nil
}

// ledger returns the run ledger, or nil when it is disabled.
func (a *app) ledger() trigger.Ledger {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}
