package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/chessmatch/internal/admin"
	"github.com/park285/chessmatch/internal/archive"
	appcfg "github.com/park285/chessmatch/internal/config"
	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/msgcat"
	"github.com/park285/chessmatch/internal/obslog"
	"github.com/park285/chessmatch/internal/profile"
	"github.com/park285/chessmatch/internal/registry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("messages init error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, rdb, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("profile backend init error: %v", err)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	store := profile.NewStore(backend, logger.Named("profile"))
	lctx, lcancel := context.WithTimeout(ctx, 10*time.Second)
	if err := store.Load(lctx); err != nil {
		// start empty; the next save overwrites whatever could not be read
		logger.Error("profiles_load_failed", zap.Error(err))
	}
	lcancel()

	opts := []match.Option{
		match.WithSeed(cfg.RNGSeed),
		match.WithCancelWait(cfg.CancelWait),
		match.WithAutosave(cfg.AutosaveInterval),
		match.WithLogger(logger.Named("match")),
		match.WithShutdownNotice(true),
	}
	var (
		archiver *archive.Writer
		repo     *archive.Repository
	)
	if cfg.DatabaseURL != "" {
		archiver, repo, err = openArchive(ctx, cfg.DatabaseURL, logger.Named("archive"))
		if err != nil {
			logger.Warn("archive_disabled", zap.Error(err))
		} else {
			opts = append(opts, match.WithArchiver(archiver))
		}
	}

	reg := registry.New(registry.WithLogger(logger.Named("registry")))
	coord := match.New(reg, store, msgs, opts...)

	srvCtx, srvCancel := context.WithCancel(ctx)
	defer srvCancel()

	go func() {
		if err := reg.ListenAndServe(srvCtx, cfg.ListenAddr); err != nil {
			logger.Error("listen_failed", zap.String("addr", cfg.ListenAddr), zap.Error(err))
			stop()
		}
	}()
	if cfg.WSAddr != "" {
		go func() {
			if err := reg.ServeWebSocket(srvCtx, cfg.WSAddr); err != nil {
				logger.Error("ws_listen_failed", zap.String("addr", cfg.WSAddr), zap.Error(err))
			}
		}()
	}
	if cfg.StatusAddr != "" {
		status := admin.NewStatusServer(coord, logger.Named("status"))
		go func() {
			if err := status.ListenAndServe(srvCtx, cfg.StatusAddr); err != nil {
				logger.Error("status_listen_failed", zap.String("addr", cfg.StatusAddr), zap.Error(err))
			}
		}()
	}
	if cfg.AdminConsole && !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Info("admin_console_skipped", zap.String("reason", "stdin is not a terminal"))
	} else if cfg.AdminConsole {
		console := admin.NewConsole(coord, admin.ConsoleConfig{HistoryFile: cfg.AdminHistoryFile}, logger.Named("admin"))
		go func() {
			if err := console.Run(srvCtx); err != nil {
				logger.Warn("admin_console_stopped", zap.Error(err))
			}
		}()
	}

	if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("coordinator_failed", zap.Error(err))
	}
	srvCancel()
	if archiver != nil {
		_ = archiver.Close()
		_ = repo.Close()
	}
	logger.Info("server_stopped")
}

func openBackend(ctx context.Context, cfg *appcfg.AppConfig) (profile.Backend, *redis.Client, error) {
	if cfg.ProfileBackend != appcfg.BackendRedis {
		return profile.NewFileBackend(cfg.ProfilesPath), nil, nil
	}
	dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rdb, err := profile.DialRedis(dctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return profile.NewRedisBackend(rdb, cfg.RedisKey), rdb, nil
}

func openArchive(ctx context.Context, databaseURL string, logger *zap.Logger) (*archive.Writer, *archive.Repository, error) {
	repo, err := archive.NewRepository(databaseURL)
	if err != nil {
		return nil, nil, err
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(sctx); err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	return archive.NewWriter(repo, 64, logger), repo, nil
}
