// mindgraph: a personal knowledge graph over an embedded SQLite store.
//
// Usage:
//
//	mindgraph serve    # MCP server (stdio transport)
//	mindgraph http     # REST API
//	mindgraph version
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/HendryAvila/mindgraph/internal/config"
	"github.com/HendryAvila/mindgraph/internal/httpapi"
	"github.com/HendryAvila/mindgraph/internal/logging"
	mgserver "github.com/HendryAvila/mindgraph/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mindgraph",
		Short: "mindgraph - personal knowledge graph",
		Long: `mindgraph stores notes as nodes tagged with dimensions and linked by
explained, directed edges. It is served to AI assistants over MCP (stdio)
or to anything else over a JSON REST API.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default: <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.mindgraph)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mindgraph v%s\n", mgserver.Version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE:  runServe,
	})

	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Start the REST API server",
		RunE:  runHTTP,
	}
	httpCmd.Flags().String("addr", "", "Listen address (default: 127.0.0.1:7878)")
	rootCmd.AddCommand(httpCmd)

	return rootCmd
}

// loadConfig resolves the configuration and applies command-line overrides,
// which take precedence over the file and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Store.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Value.String() != "" {
		cfg.HTTP.Addr = f.Value.String()
	}
	return cfg, cfg.Validate()
}

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, level, err := logging.NewWithLevel(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	watchConfig(cmd, logger, level)
	return cfg, logger, nil
}

// watchConfig applies log level changes from the config file while the
// process runs. A --log-level flag pins the level instead.
func watchConfig(cmd *cobra.Command, logger *zap.Logger, level zap.AtomicLevel) {
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		return
	}
	explicit, _ := cmd.Flags().GetString("config")
	path := config.ResolvePath(explicit)
	if _, err := os.Stat(path); err != nil {
		return
	}

	w := config.NewWatcher(path, logger.Named("config"), func(c config.Config) {
		next, err := logging.ParseLevel(c.Log.Level)
		if err != nil {
			return
		}
		if next.Level() != level.Level() {
			logger.Info("log level changed", zap.Stringer("from", level.Level()), zap.Stringer("to", next.Level()))
			level.SetLevel(next.Level())
		}
	})
	go func() {
		if err := w.Run(cmd.Context()); err != nil {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, cleanup, err := mgserver.OpenService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("serving MCP on stdio", zap.String("db", cfg.DBPath()), zap.String("version", mgserver.Version))

	// ServeStdio handles SIGINT/SIGTERM itself.
	return server.ServeStdio(mgserver.New(svc, logger))
}

func runHTTP(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	svc, cleanup, err := mgserver.OpenService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpapi.New(svc, logger, httpapi.WithAllowedOrigins(cfg.HTTP.AllowedOrigins...)).Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", cfg.HTTP.Addr), zap.String("db", cfg.DBPath()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
