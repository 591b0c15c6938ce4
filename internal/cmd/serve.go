package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matthieukhl/freshmart/internal/server"
	"github.com/matthieukhl/freshmart/internal/telemetry"
	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FreshMart API server",
	Long: `Start the FreshMart HTTP API which provides:
- Public catalog browsing and customer order intake
- Staff order management and authentication
- Dashboard and period analytics`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "How long to wait for in-flight requests on shutdown")
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 FreshMart Starting...")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("🔌 Connecting to database...")
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	fmt.Println("✅ Database connected successfully")

	shutdownTracing, err := telemetry.Setup(a.cfg.Telemetry, a.cfg.App.Env, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			a.logger.Warn("Failed to flush traces", "error", err)
		}
	}()

	fmt.Println("⚙️  Setting up server...")
	srv := server.NewServer(server.Deps{
		Config:    a.cfg,
		DB:        a.db,
		Catalog:   a.catalog,
		Orders:    a.orders,
		Analytics: a.analytics,
		Auth:      a.auth,
		Sessions:  a.sessions,
		Logger:    a.logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Printf("🌐 Server running on %s\n", a.cfg.Server.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	fmt.Println("✅ Server stopped")
	return nil
}
