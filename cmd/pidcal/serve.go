package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlyingRobots-Pequi/pidcal/internal/api"
	"github.com/FlyingRobots-Pequi/pidcal/internal/audit"
	"github.com/FlyingRobots-Pequi/pidcal/internal/auth"
	"github.com/FlyingRobots-Pequi/pidcal/internal/chart"
	"github.com/FlyingRobots-Pequi/pidcal/internal/config"
	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/logging"
	"github.com/FlyingRobots-Pequi/pidcal/internal/poll"
	"github.com/FlyingRobots-Pequi/pidcal/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chart surface (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("uri", config.DefaultConnectionURI, "MAVLink connection string")
	f.String("addr", config.DefaultHTTPAddr, "HTTP listen address")
	f.Bool("auto-connect", false, "connect on startup")
	f.Duration("interval", config.DefaultUpdateInterval, "poll interval")
	f.Int("max-data-length", config.DefaultMaxDataLength, "samples retained per axis")
	f.Float64("window", config.DefaultWindowSeconds, "visible window in seconds")
	f.Duration("handshake-timeout", 0, "give up waiting for the first heartbeat after this long (0 waits forever)")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig loads the layered configuration and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("uri") {
		cfg.ConnectionURI, _ = f.GetString("uri")
	}
	if f.Changed("addr") {
		cfg.HTTP.Addr, _ = f.GetString("addr")
	}
	if f.Changed("auto-connect") {
		cfg.AutoConnect, _ = f.GetBool("auto-connect")
	}
	if f.Changed("interval") {
		cfg.UpdateInterval, _ = f.GetDuration("interval")
	}
	if f.Changed("max-data-length") {
		cfg.MaxDataLength, _ = f.GetInt("max-data-length")
	}
	if f.Changed("window") {
		cfg.WindowSeconds, _ = f.GetFloat64("window")
	}
	if f.Changed("handshake-timeout") {
		cfg.HandshakeTimeout, _ = f.GetDuration("handshake-timeout")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command) error {
	// Step 1: Load configuration
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logger.Info("Starting pidcal", "version", Version)
	logger.Info("Configuration loaded", "uri", cfg.ConnectionURI, "interval", cfg.UpdateInterval,
		"maxDataLength", cfg.MaxDataLength, "window", cfg.WindowSeconds)

	// Step 2: Initialize telemetry hub
	var app *poll.App
	hub := telemetry.NewHub(telemetry.Options{
		HeartbeatInterval: cfg.HTTP.SSEHeartbeat,
		BufferSize:        cfg.HTTP.SSEBuffer,
		Snapshot:          func() interface{} { return app.Status() },
	})
	logger.Info("Telemetry hub initialized")

	// Step 3: Initialize chart surface
	surface := chart.NewWebSurface(hub, cfg.Chart.Width, cfg.Chart.Height)

	// Step 4: Initialize audit logger
	var auditLogger *audit.Logger
	if cfg.AuditDir != "" {
		auditLogger, err = audit.NewLogger(cfg.AuditDir, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
		if err != nil {
			return fmt.Errorf("failed to initialize audit logger: %w", err)
		}
		logger.Info("Audit logger initialized", "dir", cfg.AuditDir)
	}

	// Step 5: Initialize authentication
	var verifier *auth.Verifier
	if cfg.HTTP.AuthSecret != "" {
		verifier, err = auth.NewVerifier(cfg.HTTP.AuthSecret)
		if err != nil {
			return err
		}
		logger.Info("Authentication enabled")
	} else {
		logger.Warn("Authentication disabled, every client may connect the link")
	}

	// Step 6: Create poll loop
	app, err = poll.New(cfg, link.NewDialer(cfg.SystemID), logger.WithPrefix("poll"),
		poll.WithSurface(surface),
		poll.WithStatusListener(func(st poll.Status) {
			if st.State == poll.Polling.String() {
				surface.Reset()
			}
			if err := hub.Publish(api.StatusEvent(st)); err != nil {
				logger.Warn("status publish failed", "err", err)
			}
		}),
	)
	if err != nil {
		return err
	}

	// Step 7: Create API server
	server := api.NewServer(api.Options{
		App:         app,
		Charts:      surface,
		Telemetry:   hub,
		Auth:        auth.NewMiddleware(verifier),
		Audit:       auditLogger,
		Logger:      logger.WithPrefix("api"),
		ReadTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout: cfg.HTTP.IdleTimeout,
	})

	// Step 8: Start poll loop and HTTP server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopErr := make(chan error, 1)
	go func() { loopErr <- app.Run(ctx) }()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.HTTP.Addr); err != nil {
			serverErr <- err
		}
	}()

	logger.Info("pidcal started", "url", "http://"+cfg.HTTP.Addr+"/", "health", "http://"+cfg.HTTP.Addr+"/api/v1/health")

	var runErr error
	loopStopped := false
	select {
	case <-ctx.Done():
		logger.Info("Received signal, initiating graceful shutdown")
	case runErr = <-serverErr:
		logger.Error("Server error", "err", runErr)
	case runErr = <-loopErr:
		loopStopped = true
		logger.Error("Poll loop stopped", "err", runErr)
	}
	stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Stop()
	logger.Info("Telemetry hub stopped")

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", "err", err)
	} else {
		logger.Info("HTTP server stopped gracefully")
	}

	if !loopStopped {
		select {
		case err := <-loopErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Poll loop error", "err", err)
			}
		case <-shutdownCtx.Done():
			logger.Warn("Poll loop did not stop in time")
		}
	}

	if err := auditLogger.Close(); err != nil {
		logger.Error("Error closing audit logger", "err", err)
	}

	logger.Info("pidcal shutdown complete")
	return runErr
}
