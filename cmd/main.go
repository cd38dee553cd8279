package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"shopify-catalog/extractor"
	"shopify-catalog/internal/config"
	"shopify-catalog/internal/export"
	"shopify-catalog/internal/store"
	"shopify-catalog/internal/types"
	"shopify-catalog/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	defaultStoresFile := os.Getenv("STORES_FILE")
	if defaultStoresFile == "" {
		defaultStoresFile = "stores.json5"
	}

	// Parse command line flags
	var (
		storesFile    = flag.String("stores-file", defaultStoresFile, "Stores configuration file (json5)")
		storeFlag     = flag.String("store", "", "Single store id to extract")
		storesFlag    = flag.String("stores", "", "Comma-separated list of store ids")
		allFlag       = flag.Bool("all", false, "Extract every configured store")
		outputFlag    = flag.String("output", "", "Output file path (default: stdout)")
		csvFlag       = flag.String("csv", "", "Also append the products to this Shopify CSV file")
		persist       = flag.Bool("persist", false, "Save results to MongoDB (MONGO_URI, MONGO_DB)")
		requestDelay  = flag.Duration("delay", 1*time.Second, "Delay between requests")
		maxRetries    = flag.Int("retries", 3, "Maximum retry attempts")
		timeout       = flag.Duration("timeout", 30*time.Second, "Request timeout")
		maxConcurrent = flag.Int("concurrent", 5, "Maximum concurrent builds")
		useBrowser    = flag.Bool("browser", false, "Use headless browser for HTML stores")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Exactly one of --store, --stores or --all
	selected := 0
	for _, set := range []bool{*storeFlag != "", *storesFlag != "", *allFlag} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		log.Fatal("Exactly one of --store, --stores or --all is required")
	}

	logger := utils.NewLogger(*verbose)

	storeConfigs, err := config.LoadStores(*storesFile)
	if err != nil {
		logger.Fatalf("Failed to load stores: %v", err)
	}

	// Create configuration
	cfg := types.DefaultConfig()
	cfg.RequestDelay = *requestDelay
	cfg.MaxRetries = *maxRetries
	cfg.Timeout = *timeout
	cfg.MaxConcurrentRequests = *maxConcurrent
	cfg.UseHeadlessBrowser = *useBrowser

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var opts []extractor.Option
	if *persist {
		st, err := store.Open(ctx, os.Getenv("MONGO_URI"), os.Getenv("MONGO_DB"), logger)
		if err != nil {
			logger.Fatalf("Failed to open store: %v", err)
		}
		defer st.Close(context.Background())
		opts = append(opts, extractor.WithStore(st))
	}
	ex := extractor.NewExtractor(cfg, logger, storeConfigs, opts...)

	var ids []string
	switch {
	case *allFlag:
		ids = ex.StoreIDs()
	case *storeFlag != "":
		ids = []string{strings.TrimSpace(*storeFlag)}
	default:
		for _, id := range strings.Split(*storesFlag, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	startTime := time.Now()
	logger.Infof("Starting extraction for stores: %v", ids)
	results, err := ex.ExtractAll(ctx, ids)
	if err != nil {
		logger.Errorf("Extraction interrupted: %v", err)
	}
	logger.Infof("Extraction completed in %v", time.Since(startTime))

	// Marshal results to JSON
	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to marshal results: %v", err)
	}

	// Output results
	if *outputFlag != "" {
		if err := os.WriteFile(*outputFlag, jsonData, 0644); err != nil {
			logger.Fatalf("Failed to write output file: %v", err)
		}
		logger.Infof("Results written to: %s", *outputFlag)
	} else {
		fmt.Println(string(jsonData))
	}

	if *csvFlag != "" {
		exporter := export.NewExporter(logger)
		for _, s := range results.Stores {
			if _, err := exporter.Write(*csvFlag, s.Products); err != nil {
				logger.Fatalf("Failed to export %s: %v", s.StoreName, err)
			}
		}
	}

	// Print summary
	logger.Infof("Total stores processed: %d (%d failed)", len(results.Stores), results.FailedStores)
	logger.Infof("Total products: %d", results.TotalProducts)
	if results.FailedStores > 0 {
		os.Exit(1)
	}
}
