package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/sendgrid-source/internal/api"
	"github.com/ignite/sendgrid-source/internal/app"
	"github.com/ignite/sendgrid-source/internal/catalog"
	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Server.LogLevel))

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.ResolveSecrets(ctx, cfg); err != nil {
		log.Fatalf("Secret resolution failed: %v", err)
	}

	rdb := app.ConnectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Println("Probe cache is in process: no Redis")
	}

	probes := app.NewProbeCache(cfg.SendGrid, rdb, cfg.Redis.ProbeCacheTTL())
	h := api.NewHandlers(catalog.Default(), app.NewValidatorWithCache(cfg, probes), api.WithProbeInvalidator(probes))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           api.SetupRoutes(h, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.SendGrid.ProbeTimeout() + 20*time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
