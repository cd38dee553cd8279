package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/export"
	"shopify-catalog/internal/store"
	"shopify-catalog/internal/types"
	"shopify-catalog/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	var (
		inputFlag  = flag.String("input", "", "Extraction JSON written by the scraper CLI (default: read MongoDB)")
		siteFlag   = flag.String("site", "", "Only export this site (default: every site)")
		outputFlag = flag.String("output", "products.csv", "Shopify CSV file to append to")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := utils.NewLogger(*verbose)

	var (
		bySite map[string][]catalog.Product
		err    error
	)
	if *inputFlag != "" {
		bySite, err = loadDump(*inputFlag)
	} else {
		if os.Getenv("MONGO_URI") == "" {
			log.Fatal("Either --input or MONGO_URI is required")
		}
		bySite, err = loadStore(os.Getenv("MONGO_URI"), os.Getenv("MONGO_DB"), *siteFlag, logger)
	}
	if err != nil {
		logger.Fatalf("Failed to load products: %v", err)
	}

	exporter := export.NewExporter(logger)
	total := 0
	for _, site := range sortedSites(bySite) {
		if *siteFlag != "" && site != *siteFlag {
			continue
		}
		products := bySite[site]
		n, err := exporter.Write(*outputFlag, products)
		if err != nil {
			logger.Fatalf("Failed to export %s: %v", site, err)
		}
		logger.Infof("Exported %d products from %s", len(products), site)
		total = n
	}
	logger.Infof("%s now holds %d rows", *outputFlag, total)
}

// sortedSites fixes the export order so repeated runs write identical files.
func sortedSites(bySite map[string][]catalog.Product) []string {
	sites := make([]string, 0, len(bySite))
	for site := range bySite {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}

func loadDump(path string) (map[string][]catalog.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result types.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	bySite := make(map[string][]catalog.Product, len(result.Stores))
	for _, s := range result.Stores {
		bySite[s.StoreName] = append(bySite[s.StoreName], s.Products...)
	}
	return bySite, nil
}

func loadStore(uri, database, site string, logger types.Logger) (map[string][]catalog.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, uri, database, logger)
	if err != nil {
		return nil, err
	}
	defer st.Close(context.Background())

	sites := []string{site}
	if site == "" {
		if sites, err = st.Sites(ctx); err != nil {
			return nil, err
		}
	}
	bySite := make(map[string][]catalog.Product, len(sites))
	for _, s := range sites {
		products, err := st.LoadSite(ctx, s)
		if err != nil {
			return nil, err
		}
		bySite[s] = products
	}
	return bySite, nil
}
