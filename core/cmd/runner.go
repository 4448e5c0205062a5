package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"log/slog"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
	coretelegram "github.com/m3rciful/budgetbot/core/telegram"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Worker is a long running task that runs next to the bot and stops when its context
// is cancelled.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

// WorkerApp is implemented by apps with background workers.
type WorkerApp interface {
	Workers() []Worker
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	// DisableSignals leaves ctx as the only way to stop the bot.
	DisableSignals bool
}

// ResolveConfigPath picks the config file: the explicit path, then the environment
// variable, then the default. An empty result means environment-only configuration.
func ResolveConfigPath(explicit, envVar, fallback string) string {
	if explicit != "" {
		return explicit
	}
	if envVar == "" {
		envVar = "CONFIG_PATH"
	}
	if p := os.Getenv(envVar); p != "" {
		return p
	}
	return fallback
}

// Run loads configuration, bootstraps the Telegram app, and runs the bot together with
// the app's workers until ctx is done or a signal arrives. The app is closed on return
// when it implements io.Closer.
func Run(ctx context.Context, opts Options) error {
	if opts.LoadConfig == nil {
		return fmt.Errorf("cmd: LoadConfig is required")
	}
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfgPath := ResolveConfigPath(opts.ConfigPath, opts.ConfigEnvVar, opts.DefaultConfigPath)
	if cfgPath == "" {
		log.Printf("loading config from environment")
	} else {
		log.Printf("loading config: %s", cfgPath)
	}
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	if !opts.DisableSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	if closer, ok := application.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				appLog("close failed", slog.String("event", "shutdown"), slog.String("status", "fail"),
					slog.String("err", err.Error()))
			}
		}()
	}

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}

	var workers []Worker
	if wa, ok := application.(WorkerApp); ok {
		workers = wa.Workers()
	}

	startedAt := time.Now()
	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		appLog("app ready", slog.String("event", "ready"), slog.Int("workers", len(workers)),
			slog.Duration("startup_duration", logger.Took(startedAt)))
		return nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		appLog("shutting down", slog.String("event", "shutdown"))
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return runAll(ctx, func(ctx context.Context) error { return run(ctx, runOpts) }, workers)
}

// runAll runs the bot and the workers in one group. The bot returning, for any reason,
// stops the workers; a failing worker stops the bot.
func runAll(ctx context.Context, bot func(context.Context) error, workers []Worker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return bot(gctx)
	})
	for _, w := range workers {
		if w.Run == nil {
			continue
		}
		g.Go(func() error {
			err := w.Run(gctx)
			if err == nil || errors.Is(err, context.Canceled) {
				appLog("worker stopped", slog.String("event", "worker.stop"), slog.String("worker", w.Name))
				return nil
			}
			appLog("worker failed", slog.String("event", "worker.stop"), slog.String("status", "fail"),
				slog.String("worker", w.Name), slog.String("err", err.Error()))
			return fmt.Errorf("cmd: worker %s: %w", w.Name, err)
		})
	}
	return g.Wait()
}

// appLog writes an app lifecycle line; lines carrying status=fail are warnings.
func appLog(msg string, attrs ...slog.Attr) {
	level := slog.LevelInfo
	for _, a := range attrs {
		if a.Key == "status" && a.Value.String() == "fail" {
			level = slog.LevelWarn
		}
	}
	logger.Component("app").LogAttrs(context.Background(), level, msg, attrs...)
}
