package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrmcauliffe00/flow-diagram/internal/export"
	"github.com/jrmcauliffe00/flow-diagram/internal/ingest"
	"github.com/jrmcauliffe00/flow-diagram/internal/logging"
	"github.com/jrmcauliffe00/flow-diagram/internal/panel"
	"github.com/jrmcauliffe00/flow-diagram/internal/scheduler"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/internal/streaming"
	"github.com/jrmcauliffe00/flow-diagram/pkg/mcp"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			printVersion()
			return
		case "serve":
			// fall through to run below
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (expected serve or version)\n", os.Args[1])
			os.Exit(2)
		}
	}

	if err := run(loadConfig()); err != nil {
		fmt.Fprintln(os.Stderr, "flow-diagram:", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := store.NewRegistry(logger)
	hub := streaming.NewMemoryHub()

	importer, err := ingest.New()
	if err != nil {
		return fmt.Errorf("build importer: %w", err)
	}
	exporter := export.NewExporter(cfg.PoolSize, logger)
	defer exporter.Close()

	srv, err := mcp.NewDiagramServer(mcp.DiagramServerDeps{
		Registry: registry,
		Hub:      hub,
		Exporter: exporter,
		Importer: importer,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	notifier := mcp.NewNotifier(srv.MCPServer(), srv.Sessions(), hub, logger)
	if err := notifier.Start(ctx); err != nil {
		return fmt.Errorf("start notifier: %w", err)
	}
	defer notifier.Stop()

	janitor, err := scheduler.NewJanitor(registry, hub, cfg.JanitorSchedule, cfg.MaxIdle(), logger)
	if err != nil {
		return err
	}
	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}
	defer janitor.Stop()

	if cfg.Panel {
		panelSrv := panel.NewPanelServer(panel.PanelDeps{
			Registry: registry,
			Hub:      hub,
			Logger:   logger,
		})
		httpSrv := &http.Server{Addr: cfg.PanelAddr, Handler: panelSrv.Handler()}
		go func() {
			logger.Info("panel listening", slog.String("addr", cfg.PanelAddr))
			if serveErr := httpSrv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
				logger.Error("panel server failed", slog.Any("error", serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	switch cfg.Transport {
	case "sse":
		logger.Info("serving MCP over SSE",
			slog.String("addr", cfg.ListenAddr),
			slog.String("base_url", cfg.BaseURL),
		)
		if err := srv.ServeSSE(ctx, cfg.ListenAddr, cfg.BaseURL); err != nil && err != http.ErrServerClosed {
			return err
		}
	case "stdio":
		logger.Info("serving MCP over stdio")
		// Stdin closing is the normal way a stdio session ends; only
		// report errors that happen while the context is still live.
		if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
			return err
		}
	default:
		return fmt.Errorf("unknown transport %q (expected stdio or sse)", cfg.Transport)
	}

	logger.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger: text on stderr so the stdio
// transport keeps stdout to itself, wrapped so diagram/tool/session ids
// from the request context land on every record.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
