package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/debugbridge/internal/api"
	"github.com/mattjoyce/debugbridge/internal/backend"
	"github.com/mattjoyce/debugbridge/internal/bridge"
	"github.com/mattjoyce/debugbridge/internal/config"
	"github.com/mattjoyce/debugbridge/internal/dispatch"
	"github.com/mattjoyce/debugbridge/internal/engine"
	"github.com/mattjoyce/debugbridge/internal/events"
	"github.com/mattjoyce/debugbridge/internal/lock"
	"github.com/mattjoyce/debugbridge/internal/log"
	"github.com/mattjoyce/debugbridge/internal/scriptstore"
	"github.com/mattjoyce/debugbridge/internal/storage"
)

// debuggee is what the bridge needs from a backend connection.
type debuggee interface {
	backend.Client
	backend.EventSource
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.SetupWithFormat(cfg.Service.LogLevel, cfg.Service.LogFormat, os.Stdout)
	logger := log.WithComponent("main")
	logger.Info("debugbridge starting", "version", version, "config", cfg.SourcePath, "fingerprint", cfg.Fingerprint)

	pidLock, err := lock.AcquirePIDLock(cfg.Service.LockPath)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			pid, _ := lock.ReadPID(cfg.Service.LockPath)
			logger.Error("another bridge is running", "path", cfg.Service.LockPath, "pid", pid)
		} else {
			logger.Error("failed to acquire PID lock", "path", cfg.Service.LockPath, "error", err)
		}
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", cfg.Service.LockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agentOpts := []bridge.Option{
		bridge.WithLogger(log.WithComponent("bridge")),
		bridge.WithClearOnConnect(cfg.Debugger.ClearOnConnect()),
		bridge.WithReadyTimeout(cfg.Debugger.ReadyTimeout),
	}
	if cfg.LiveEdit.Save {
		db, err := storage.OpenSQLite(ctx, cfg.LiveEdit.HistoryPath)
		if err != nil {
			logger.Error("failed to open history database", "path", cfg.LiveEdit.HistoryPath, "error", err)
			return 1
		}
		defer db.Close()
		agentOpts = append(agentOpts, bridge.WithLiveEditSave(scriptstore.New(db)))
		logger.Info("live edit saving enabled", "history", cfg.LiveEdit.HistoryPath)
	}

	errCh := make(chan error, 3)

	client, closeClient := openDebuggee(ctx, cfg, logger, errCh)
	defer closeClient()

	hub := events.NewHub(events.DefaultCapacity)
	agent := bridge.NewAgent(client, hub, agentOpts...)

	backendEvents, unsubscribe := client.Subscribe()
	defer unsubscribe()
	go agent.Run(ctx, backendEvents)

	apiServer := api.New(api.Config{
		Listen:         cfg.Frontend.Listen,
		APIKey:         cfg.Frontend.APIKey,
		RequestTimeout: cfg.Debugger.RequestTimeout,
		Version:        version,
	}, agent, hub, log.WithComponent("api"))
	go func() {
		if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("api: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logger.Info("debugbridge running (press Ctrl+C to stop)", "listen", cfg.Frontend.Listen, "target", cfg.Debugger.Target)

	code := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		code = 1
	}
	cancel()

	agent.Wait()
	logger.Info("debugbridge stopped")
	return code
}

// openDebuggee builds the backend client named by debugger.target. A remote
// connection is dialed in the background so the front end can attach first;
// Enable waits for it. Losing the debuggee is reported on errCh.
func openDebuggee(ctx context.Context, cfg *config.Config, logger *slog.Logger, errCh chan<- error) (debuggee, func()) {
	if cfg.Debugger.Target == config.TargetMemory {
		host := backend.NewHost(engine.NewMemory(),
			backend.WithLogger(log.WithComponent("backend")),
			backend.WithDispatchOptions(
				dispatch.WithLogger(log.WithComponent("dispatch")),
				dispatch.WithStackTraceLimit(cfg.Debugger.StackTraceLimit),
				dispatch.WithCallerSkip(cfg.Debugger.CallerSkipOrDefault()),
			),
		)
		logger.Info("using in-process engine")
		return backend.NewLocal(host), func() {}
	}

	conn := backend.NewConn(cfg.Debugger.Target, backend.WithConnLogger(log.WithComponent("backend-conn")))
	go func() {
		if err := conn.Start(ctx); err != nil {
			if ctx.Err() == nil {
				errCh <- fmt.Errorf("debuggee: %w", err)
			}
			return
		}
		select {
		case <-conn.Done():
			if ctx.Err() == nil {
				errCh <- fmt.Errorf("debuggee %s disconnected", cfg.Debugger.Target)
			}
		case <-ctx.Done():
		}
	}()
	return conn, func() { _ = conn.Close() }
}
