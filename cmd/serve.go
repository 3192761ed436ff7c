package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/rab/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeEventsBuffer int
	flagServeShutdown     time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the RAB web page and JSON/SSE API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")
	serveCmd.Flags().DurationVar(&flagServeShutdown, "shutdown-timeout", 5*time.Second, "Grace period for in-flight requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	if flagServeAddr != "" {
		cfg.Server.Addr = flagServeAddr
	}
	if flagServeEventsBuffer > 0 {
		cfg.Server.EventsBuffer = flagServeEventsBuffer
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newService(cfg)
	if !svc.Status().AIConfigured {
		logger.Warn("no Gemini API key configured; uploads will be rejected")
	}

	srv := server.New(svc, server.Config{
		Addr:        cfg.Server.Addr,
		Title:       cfg.Export.Title,
		Logger:      logger,
		ShutdownTTL: flagServeShutdown,
	})
	return srv.Run(ctx)
}
