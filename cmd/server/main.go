package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"DerivLex/internal/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type cli struct {
	Config  string           `help:"Path to a YAML or JSON config file" type:"path" env:"DERIVLEX_CONFIG"`
	Version kong.VersionFlag `help:"Print the version and exit"`
}

func main() {
	var params cli
	kong.Parse(&params,
		kong.Name("derivlex-server"),
		kong.Description("HTTP service compiling and running derivative-built lexers."),
		kong.Vars{"version": Version},
	)

	cfg, err := server.LoadConfig(params.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting DerivLex",
		"version", Version,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"config", params.Config,
	)

	// Initialize the lexer manager (loads persisted tables).
	mgr, err := server.NewManager(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize lexer manager: %v\n", err)
		os.Exit(1)
	}

	handler := server.NewHandler(mgr, cfg, Version, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	// Root info endpoint.
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":    "DerivLex",
			"version": Version,
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
		IdleTimeout:  time.Duration(cfg.IdleTimeout),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
