// Package server exposes the taskdeck API over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/config"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB     *gorm.DB
	Config *config.Config
	Out    io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully. The reminder scan runs on the configured cron
// schedule for as long as the server is up.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Config == nil {
		return fmt.Errorf("server: config is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, opts.DB, opts.Config)

	addr := fmt.Sprintf(":%d", opts.Config.HTTP.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	scanCtx, stopScan := context.WithCancel(ctx)
	defer stopScan()
	go runReminderScan(scanCtx, opts.DB, opts.Config.Reminders, opts.Out)

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "taskdeck API listening at http://localhost:%d\n", opts.Config.HTTP.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
