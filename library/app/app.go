package app

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AliMakkawi/library-management/library/config"
	"github.com/AliMakkawi/library-management/library/internal/handler"
	"github.com/AliMakkawi/library-management/library/internal/repository"
	"github.com/AliMakkawi/library-management/library/internal/server"
	"github.com/AliMakkawi/library-management/library/internal/service"
	"github.com/AliMakkawi/library-management/library/migrations"
	"github.com/AliMakkawi/library-management/library/seed"
	"github.com/AliMakkawi/library-management/pkg/ai"
	"github.com/AliMakkawi/library-management/pkg/auth"
	"github.com/AliMakkawi/library-management/pkg/cache"
	cb "github.com/AliMakkawi/library-management/pkg/circuit_breaker"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/AliMakkawi/library-management/pkg/logger"
	"github.com/AliMakkawi/library-management/pkg/metrics"
	"github.com/AliMakkawi/library-management/pkg/postgres"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var closers []io.Closer
	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	m := metrics.New("library")
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithLoanPeriod(cfg.Loan.Period),
		service.WithInvitationTTL(cfg.Loan.InvitationTTL),
	}

	if cfg.Cache.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache, "library")
		if err != nil {
			log.Warn("redis unavailable, AI results will not be cached", zap.Error(err))
		} else {
			opts = append(opts, service.WithCache(rc))
			closers = append(closers, rc)
		}
	}

	if aiClient, err := ai.New(cfg.AI); err == nil {
		breaker := cb.New(10, 30*time.Second, 0.5, 2, cb.WithStateHook(func(from, to cb.Status) {
			log.Warn("AI circuit breaker", zap.Stringer("from", from), zap.Stringer("to", to))
			m.BreakerTransition("ai", to.String())
		}))
		opts = append(opts, service.WithAI(aiClient, breaker))
		log.Info("AI features enabled", zap.String("model", cfg.AI.Model))
	} else {
		log.Info("AI features disabled", zap.Error(err))
	}

	var consumer io.Closer
	if cfg.Kafka.Enable {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		closers = append(closers, producer)
		opts = append(opts, service.WithEvents(kafka.NewPublisher(producer, kafka.ActivityTopic)))
	}

	svc := service.NewService(repo, tokens, log, opts...)

	if cfg.Kafka.Enable {
		group, err := kafka.NewConsumer(cfg.Kafka, kafka.ActivityConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		consumer = group
		go kafka.Consume(ctx, group, handler.NewConsumer(svc.RecordActivity, log), log, kafka.ActivityTopic)
	}

	h := handler.New(svc, tokens, m, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	stop()
	if consumer != nil {
		if err = consumer.Close(); err != nil {
			log.Error("kafka consumer close", zap.Error(err))
		}
	}
	for _, c := range closers {
		if err = c.Close(); err != nil {
			log.Error("close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

// Migrate applies the embedded migrations and exits.
func Migrate(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return err
	}
	db.Close()
	log.Info("migrations applied")
	return nil
}

// Seed loads the demo catalog and accounts into a migrated database.
func Seed(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")
	ctx := context.Background()
	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return err
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return err
	}
	data, err := seed.Load()
	if err != nil {
		return err
	}
	return repo.InTx(ctx, func(tx repository.Repository) error {
		_, err := seed.Run(ctx, tx, data, log)
		return err
	})
}
