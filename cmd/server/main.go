package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/api"
	"github.com/UkralStul/trip-comments-service/internal/config"
	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/events"
	"github.com/UkralStul/trip-comments-service/internal/job"
	"github.com/UkralStul/trip-comments-service/internal/lock"
	"github.com/UkralStul/trip-comments-service/internal/logger"
	"github.com/UkralStul/trip-comments-service/internal/realtime"
	"github.com/UkralStul/trip-comments-service/internal/security"
	"github.com/UkralStul/trip-comments-service/internal/service"
	"github.com/UkralStul/trip-comments-service/internal/storage"
	"github.com/UkralStul/trip-comments-service/internal/storage/gormstore"
	"github.com/UkralStul/trip-comments-service/internal/storage/inmemory"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./configs/config.yaml)")
	storageType := flag.String("storage", "", "Storage type (in-memory, postgres or mysql), overrides config")
	issueFor := flag.String("issue-token", "", "Print a JWT for the given user id and exit")
	issueName := flag.String("name", "", "Display name for -issue-token")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *storageType)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger.Init(os.Stdout, cfg.Log.Level)

	issuer := security.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
	if *issueFor != "" {
		if err := printToken(os.Stdout, issuer, *issueFor, *issueName); err != nil {
			slog.Error("failed to issue token", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, issuer); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}

func loadConfig(path, storageOverride string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if storageOverride != "" {
		cfg.Storage.Driver = storageOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func printToken(w io.Writer, issuer *security.Issuer, userID, name string) error {
	if name == "" {
		name = userID
	}
	token, err := issuer.GenerateToken(domain.Author{ID: userID, Name: name})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func run(cfg *config.Config, issuer *security.Issuer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server", "storage", cfg.Storage.Driver)
	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Server.SeedDemoData {
		// Заполним данными для тестов
		if err := fillWithMockData(ctx, store); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	locker, err := openLocker(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	hub := realtime.NewHub()
	publishers := events.Multi{hub}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.DialKafka(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("failed to connect to kafka: %w", err)
		}
		defer func() {
			if err := kafka.Close(); err != nil {
				slog.Warn("failed to close kafka producer", "err", err)
			}
		}()
		publishers = append(publishers, kafka)
		slog.Info("kafka publisher enabled", "topic", cfg.Kafka.Topic)
	}

	comments := service.NewCommentService(store, locker, publishers, time.Duration(cfg.Redis.SubmitLockTTL)*time.Second)
	router := api.NewRouter(api.Deps{
		Comments: comments,
		Store:    store,
		Hub:      hub,
		Tokens:   issuer,
	})

	cronMgr := job.NewManager()
	if err := cronMgr.Register("recount_likes", cfg.Jobs.RecountLikes, job.NewRecountLikesJob(store)); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cronMgr.Start()
		<-gCtx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		cronMgr.Stop(stopCtx)
		return nil
	})
	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown failed", "err", err)
		}
		return nil
	})

	return g.Wait()
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Server.ShutdownTimeout) * time.Second
}

func openStore(cfg config.StorageConfig) (storage.Storage, func(), error) {
	if cfg.Driver == config.DriverInMemory {
		return inmemory.New(), func() {}, nil
	}

	store, err := gormstore.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close storage", "err", err)
		}
	}, nil
}

func openLocker(ctx context.Context, cfg config.RedisConfig) (lock.Locker, error) {
	if cfg.Addr == "" {
		return lock.NewMemory(), nil
	}
	rdb, err := lock.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("redis submit lock enabled", "addr", cfg.Addr)
	return lock.NewRedis(rdb, "tripcomments:"), nil
}
