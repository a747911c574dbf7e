package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hostelhub/roomcast/internal/config"
	"github.com/hostelhub/roomcast/internal/database"
	"github.com/hostelhub/roomcast/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveHost   string
	serveLogDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the roomcast notification gateway",
	Long: `Starts the roomcast gateway: a long-running daemon that holds one
Server-Sent Events stream per open student tab and pushes room assignments
down every stream belonging to that student.

Quick API reference:
  GET  /health                              liveness check
  GET  /api/status                          registry and delivery counters
  GET  /api/notifications/subscribe?token=  SSE stream for one student
  GET  /api/students                        list students
  POST /api/students                        register a student
  GET  /api/students/{id}/assignments       room history
  POST /api/students/{id}/room              assign a room (body: {"room_no":"B-12"})

Keep-alive comments go out on the gateway.keepalive cron schedule
(default "@every 20s").`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port to listen on (default 6090, overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"interface to bind (default 127.0.0.1, overrides config)")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "logs",
		"directory to write gateway logs for later inspection")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gateway gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logFilePath, closeLog, err := setupGatewayFileLogger(serveLogDir)
	if err != nil {
		return fmt.Errorf("initialising gateway logger: %w", err)
	}
	defer closeLog()

	if servePort > 0 {
		cfg.Gateway.Port = servePort
	}
	if serveHost != "" {
		cfg.Gateway.Host = serveHost
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	gw, err := gateway.New(cfg, db)
	if err != nil {
		return err
	}

	addr := cfg.Gateway.Addr()
	fmt.Printf("roomcast gateway starting\n")
	fmt.Printf("  Database   : %s\n", db.Driver())
	fmt.Printf("  API        : http://%s\n", addr)
	fmt.Printf("  Stream     : http://%s/api/notifications/subscribe?token=...\n", addr)
	fmt.Printf("  Keep-alive : %s\n", cfg.Gateway.KeepAlive)
	fmt.Printf("  Logs       : %s\n\n", logFilePath)
	if cfg.Auth.Secret == "" {
		fmt.Println(warnStyle.Render("  auth.secret is not set; streams will close immediately."))
	}
	fmt.Println("Press Ctrl+C to stop gracefully.")
	fmt.Println()

	slog.Info("gateway logger initialised", "file", logFilePath)
	return gw.Start(ctx)
}

func setupGatewayFileLogger(logDir string) (string, func(), error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating log dir %s: %w", logDir, err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	runLogPath := filepath.Join(logDir, fmt.Sprintf("gateway-%s.log", ts))
	runFile, err := os.OpenFile(runLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("opening run log file: %w", err)
	}

	latestPath := filepath.Join(logDir, "gateway.log")
	latestFile, err := os.OpenFile(latestPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = runFile.Close()
		return "", nil, fmt.Errorf("opening latest log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, runFile, latestFile), &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))
	slog.SetLogLoggerLevel(level)

	cleanup := func() {
		_ = latestFile.Close()
		_ = runFile.Close()
	}
	return runLogPath, cleanup, nil
}
