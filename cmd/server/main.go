package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coverly/warranty-desk/internal/api"
	"github.com/coverly/warranty-desk/internal/calendar"
	"github.com/coverly/warranty-desk/internal/claimdoc"
	"github.com/coverly/warranty-desk/internal/config"
	"github.com/coverly/warranty-desk/internal/interpret"
	"github.com/coverly/warranty-desk/internal/llm"
	"github.com/coverly/warranty-desk/internal/pkg/logger"
	"github.com/coverly/warranty-desk/internal/wallet"
)

// checkPortAvailable verifies that the target port is not already in
// use, so a stale process fails startup loudly instead of silently
// shadowing this one.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("config load failed", "path", configPath, "err", err.Error())
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.RedactPII != nil {
		logger.SetRedactPII(*cfg.Log.RedactPII)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		logger.Error("startup aborted", "err", err.Error())
		os.Exit(1)
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("no model API key configured, interpretation will be unavailable")
	}
	if cfg.Pass.Certificate == "" || cfg.Pass.Key == "" {
		logger.Warn("pass signing credentials not configured, compose-pass will fail")
	}

	completer := llm.NewClient(cfg.LLM)
	handlers := api.NewHandlers(
		interpret.NewPipeline(completer),
		claimdoc.NewRenderer(cfg.Claim.Organization),
		wallet.NewComposer(cfg.Pass.TypeIdentifier, cfg.Pass.TeamIdentifier, cfg.Claim.Organization),
		wallet.NewBundleSigner(cfg.Pass),
		calendar.NewICalEncoder(""),
	)
	server := api.NewServer(handlers, cfg.Auth.APIToken)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err.Error())
	}
	logger.Info("server stopped")
}
