package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/medsummary/auth"
	"github.com/giygas/medsummary/config"
	"github.com/giygas/medsummary/controller"
	"github.com/giygas/medsummary/defaults"
	"github.com/giygas/medsummary/handlers"
	"github.com/giygas/medsummary/health"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/printing"
	"github.com/giygas/medsummary/scheduler"
	"github.com/giygas/medsummary/session"
	"github.com/giygas/medsummary/store"
	"github.com/giygas/medsummary/server"
)

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{
		Dir:            cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	startedAt := time.Now()
	ctx := context.Background()

	backend, closeBackend := openBackend(ctx, cfg)
	defer closeBackend()
	rs := store.New(backend)

	gate := auth.NewGate(rs, auth.WithCost(cfg.BcryptCost))
	sessions := session.NewManager(rs, gate, cfg.IdleTimeout, cfg.IdleWarning)
	sessions.Restore(ctx)

	form := controller.New(rs, defaults.Default(),
		controller.WithActivity(sessions.Touch),
		controller.WithNameChanged(func(name string) {
			logging.Debug("Patient name changed", "empty", name == "")
		}),
	)
	form.Load(ctx)

	jobs := scheduler.NewScheduler(sessions, rs, scheduler.WithEvents(func(ev session.Event) {
		logging.Debug("Session event", "kind", string(ev.Kind))
	}))
	if err := jobs.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer jobs.Stop()

	h := handlers.NewHTTPHandler(form, gate, sessions,
		printing.NewPDFHost(cfg.ExportDir),
		health.NewHealthChecker(rs, sessions, startedAt))
	srv := server.NewServer(cfg, h)

	if cfg.Env == config.EnvDevelopment {
		startProfilingServer()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Start() }()

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}

// loadEnv reads .env from the working directory, or else from next to the
// binary. A missing file is fine: the environment may be set already.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	ex, err := os.Executable()
	if err != nil {
		return
	}
	exPath := filepath.Dir(ex)
	if err := godotenv.Load(filepath.Join(exPath, ".env")); err == nil {
		if err := os.Chdir(exPath); err != nil {
			logging.Warn("Failed to change directory", "dir", exPath, "error", err)
		}
	}
}

// openBackend picks the configured storage. An unreachable Redis falls back
// to the file store so editing is never blocked; an unusable data dir falls
// back to memory.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func()) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		logging.Warn("Using in-memory store, nothing survives a restart")
		return store.NewMemoryStore(), noop

	case config.BackendRedis:
		rdb := store.NewRedisStore(store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisKeyPrefix,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rdb.Ping(pingCtx)
		if err == nil {
			logging.Info("Using redis store", "addr", cfg.RedisAddr)
			return rdb, closer(rdb)
		}
		logging.Warn("Redis unreachable, falling back to file store", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
	}

	fs, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		logging.Error("Data dir unusable, falling back to in-memory store", "dir", cfg.DataDir, "error", err)
		return store.NewMemoryStore(), noop
	}
	logging.Info("Using file store", "dir", cfg.DataDir)
	return fs, noop
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logging.Warn("Failed to close store", "error", err)
		}
	}
}

// startProfilingServer serves pprof on localhost in development
func startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Fprintln(os.Stderr, "Profiling server failed:", err)
		}
	}()
}
