package main

import (
	"context"
	"flag"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"content-eval/internal/config"
	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/internal/router"
	"content-eval/internal/service"
	"content-eval/pkg/provider"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "config file path")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	if err := models.InitDB(cfg); err != nil {
		logrus.WithError(err).Fatal("init database")
	}
	db := models.GetDB()

	seeded, err := service.SeedTasks(repository.NewTaskRepository(db))
	if err != nil {
		logrus.WithError(err).Fatal("seed task catalog")
	}
	if seeded > 0 {
		logrus.WithField("count", seeded).Info("task catalog seeded")
	}

	registry, err := provider.NewRegistry(providerConfigs(cfg))
	if err != nil {
		logrus.WithError(err).Fatal("build provider registry")
	}
	logrus.WithField("providers", registry.Names()).Info("providers registered")

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Warn("redis unreachable, falling back to in-process limits")
			redisClient = nil
		}
		cancel()
	}

	r := router.SetupRouter(cfg, db, registry, redisClient)

	addr := cfg.Server.GetAddress()
	logrus.WithField("addr", addr).Info("server starting")
	if err := r.Run(addr); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

// providerConfigs converts the configured providers into adapter configs.
func providerConfigs(cfg *config.Config) map[string]provider.Config {
	out := make(map[string]provider.Config, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		out[name] = provider.Config{
			APIBase: pc.APIBase,
			APIKey:  pc.APIKey,
			Model:   pc.Model,
			Timeout: pc.GetTimeout(),
			Pricing: provider.Pricing{
				InputPer1K:  pc.Pricing.InputPer1K,
				OutputPer1K: pc.Pricing.OutputPer1K,
			},
		}
	}
	return out
}
