package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lookup-values/common/database"
	"lookup-values/common/logger"
	"lookup-values/common/mqtt"
	commonredis "lookup-values/common/redis"
	"lookup-values/internal/config"
	httpapi "lookup-values/internal/http"
	"lookup-values/internal/repository"
	"lookup-values/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "lookup-values",
		Output:  cfg.Log.Output,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	sqlDB, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	db := repository.NewDatabase(sqlDB, cfg.Database.Driver)
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver), zap.String("dialect", db.Dialect.Name()))

	if cfg.Bootstrap {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := db.RunInTx(ctx, func(q repository.Querier) error {
			return repository.EnsureSchema(ctx, q, db.Dialect)
		})
		cancel()
		if err != nil {
			log.Fatal("Failed to bootstrap schema", zap.Error(err))
		}
	}

	lookups := service.NewLookupService(repository.NewSQLLookupsRepository(db.Dialect), log)
	var finder service.LookupFinder = lookups
	if cfg.LookupService.BaseURL != "" {
		finder = service.NewLookupClient(cfg.LookupService.BaseURL, cfg.LookupService.Timeout, log)
		log.Info("Resolving lookups from lookup service", zap.String("url", cfg.LookupService.BaseURL))
	}
	lookupValues := service.NewLookupValueService(db.Dialect, finder, log)

	// change events (optional)
	var publishers service.MultiPublisher
	var redisClient *commonredis.Client
	if cfg.Redis.Enabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis.RedisConfig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := commonredis.Ping(ctx, redisClient); err != nil {
			log.Warn("Redis unavailable, stream events may be lost", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		publishers = append(publishers, service.NewRedisStreamPublisher(redisClient, cfg.Events.Stream, cfg.Events.StreamMaxLen))
	}
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		if c, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig, log); err == nil {
			mqttClient = c
			publishers = append(publishers, service.NewMQTTPublisher(mqttClient, cfg.MQTT.Topic))
		} else {
			log.Warn("MQTT enabled but connection failed, MQTT events disabled", zap.Error(err))
		}
	}
	var events service.EventPublisher = service.NopPublisher{}
	if len(publishers) > 0 {
		events = service.NewLoggingPublisher(publishers, log)
	}

	metrics := httpapi.NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics, collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := httpapi.NewRouter(log)
	router.RegisterLookupRoutes(httpapi.NewLookupsHandler(db, lookups, metrics, log))
	router.RegisterLookupValueRoutes(httpapi.NewLookupValuesHandler(db, lookupValues, events, metrics, log))
	router.RegisterOpsRoutes(registry, func(r *http.Request) error {
		return sqlDB.PingContext(r.Context())
	})

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if err := awaitShutdown(ctx, errCh); err != nil {
		log.Error("HTTP server failed", zap.Error(err))
	} else {
		log.Info("Shutting down")
	}
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = commonredis.Close(redisClient)
	}
	_ = database.Close(sqlDB)
}

// awaitShutdown blocks until ctx is done or the server exits, returning the
// server error if it stopped on its own.
func awaitShutdown(ctx context.Context, errCh <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
