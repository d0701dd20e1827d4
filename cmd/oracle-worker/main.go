// Command oracle-worker consumes content generation jobs from the queue
// and writes the results to the encrypted message log.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	oracleworker "github.com/celestine-app/oracle-worker"
	"github.com/celestine-app/oracle-worker/store"
)

func main() {
	cfg, err := oracleworker.NewWorkerConfigFromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	cfg.ConfigureLogging()
	log := logrus.WithField("component", "main")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}

	messages := store.NewMessageStore(db, cfg.EncryptionKey)
	violations := store.NewViolationStore(db)
	users := store.NewUserDirectory(db)

	oracle := oracleworker.NewHTTPOracle(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleModel)
	charts := oracleworker.NewChartHTTPClient(cfg.ChartServiceURL)
	translator := oracleworker.NewTranslationAdapter(
		oracleworker.NewMyMemoryTranslator(cfg.TranslateURL, cfg.TranslateEmail))
	notifier := oracleworker.NewRedisReadyNotifier(redisClient)

	generator := oracleworker.NewContentGenerator(oracle, messages, translator, notifier)
	router := oracleworker.NewRouter(users, charts, messages, violations, generator, notifier)

	var cleaner oracleworker.Cleaner
	if cfg.AccountServiceURL != "" {
		cleaner = oracleworker.NewAccountServiceClient(cfg.AccountServiceURL)
	}

	queue := oracleworker.NewRedisJobQueue(redisClient, cfg.QueueKey, cfg.PollTimeout)
	consumer := oracleworker.NewConsumer(queue, router, users, cleaner, cfg.ShutdownGrace)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.WithField("addr", cfg.MetricsAddr).Info("metrics endpoint listening")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics endpoint failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go consumer.SweepDailyContent(ctx)

	runErr := make(chan error, 1)
	go func() { runErr <- consumer.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-runErr:
		if err != nil {
			log.WithError(err).Error("worker loop exited")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace+5*time.Second)
	defer cancel()
	if err := consumer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
	if err := queue.Close(); err != nil {
		log.WithError(err).Warn("queue close failed")
	}
	if err := store.Close(db); err != nil {
		log.WithError(err).Warn("database close failed")
	}
	log.Info("worker stopped")
}
