// Package logging configures the process-wide slog logger: human readable
// text on stdout and JSON lines in a weekly rotated file.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Options configures Init
type Options struct {
	// Dir holds the rotated JSON log files. Empty means console only.
	Dir            string
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Console        io.Writer
}

// LoggingService owns the active logger and its file
type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingFile
	stop   context.CancelFunc
	done   chan struct{}
}

var (
	mu                    sync.RWMutex
	DefaultLoggingService *LoggingService
	fallback              = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
)

// InitLogger sets up logging with default options. An empty dir logs to
// the console only, which is what tests use.
func InitLogger(logDir string) {
	Init(Options{Dir: logDir})
}

// Init replaces the global logger. If the log dir cannot be used the
// logger degrades to console only and says so.
func Init(opts Options) {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.RetentionWeeks <= 0 {
		opts.RetentionWeeks = 4
	}
	level := ParseLevel(opts.Level)

	svc := &LoggingService{}
	handlers := fanout{slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: level})}

	var fileErr error
	if opts.Dir != "" {
		svc.file, fileErr = NewRotatingFile(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
		if fileErr == nil {
			handlers = append(handlers, slog.NewJSONHandler(svc.file, &slog.HandlerOptions{Level: slog.LevelDebug}))
			svc.startCleanup()
		}
	}
	svc.Logger = slog.New(handlers)

	mu.Lock()
	old := DefaultLoggingService
	DefaultLoggingService = svc
	mu.Unlock()
	slog.SetDefault(svc.Logger)

	if old != nil {
		old.close()
	}
	if fileErr != nil {
		svc.Logger.Error("File logging disabled", "dir", opts.Dir, "error", fileErr)
	}
}

func (s *LoggingService) startCleanup() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.file.Cleanup(); err != nil {
					s.Logger.Warn("Log cleanup failed", "error", err)
				} else if n > 0 {
					s.Logger.Info("Removed old log files", "count", n)
				}
			}
		}
	}()
}

func (s *LoggingService) close() error {
	if s.stop != nil {
		s.stop()
		<-s.done
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// Close flushes and closes the log file, if any
func Close() error {
	mu.Lock()
	svc := DefaultLoggingService
	DefaultLoggingService = nil
	mu.Unlock()
	if svc == nil {
		return nil
	}
	return svc.close()
}

// Logger returns the active logger, or a stderr logger before Init
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
