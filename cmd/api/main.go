package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"shopify-catalog/extractor"
	"shopify-catalog/internal/api"
	"shopify-catalog/internal/config"
	"shopify-catalog/internal/jobs"
	"shopify-catalog/internal/notify"
	"shopify-catalog/internal/store"
	"shopify-catalog/internal/types"
	"shopify-catalog/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	logger := utils.NewLogger(false)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	storesFile := os.Getenv("STORES_FILE")
	if storesFile == "" {
		storesFile = "stores.json5"
	}
	storeConfigs, err := config.LoadStores(storesFile)
	if err != nil {
		logger.Fatalf("Failed to load stores: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, os.Getenv("MONGO_URI"), os.Getenv("MONGO_DB"), logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close(context.Background())

	cfg := types.DefaultConfig()
	ex := extractor.NewExtractor(cfg, logger, storeConfigs, extractor.WithStore(st))

	var notifier jobs.Notifier = notify.NewLogNotifier(logger)
	if smtpConfig, ok := notify.SMTPConfigFromEnv(); ok {
		notifier = notify.NewMailer(smtpConfig, logger)
	} else {
		logger.Warn("SMTP_SERVER not set, batch reports are only logged")
	}

	manager := jobs.NewManager(ctx, ex.ExtractAll, notifier, logger)
	server := api.NewServer(manager, ex, logger)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting API server on port %s", port)
		logger.Infof("Scrape endpoint: http://localhost:%s/api/scrape", port)
		logger.Infof("Health check: http://localhost:%s/health", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	manager.Wait()
}
