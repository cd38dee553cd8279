package notify

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/jobs"
	"shopify-catalog/internal/types"
)

func finishedJob() jobs.Job {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	return jobs.Job{
		ID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
		State:      jobs.StateCompleted,
		StartedAt:  started,
		FinishedAt: &finished,
		Result: &types.ExtractionResult{
			Stores: []types.StoreResult{
				{
					StoreName: "shop-a",
					Products:  make([]catalog.Product, 2),
					Report:    types.Report{Fetched: 4, Built: 3, Merged: 1, Skipped: map[string]int{"missing title": 1}},
				},
				{StoreName: "shop-b", Error: "failed to fetch products: unexpected status code: 503"},
			},
			TotalProducts: 2,
			FailedStores:  1,
		},
	}
}

func TestFormatReport(t *testing.T) {
	report := FormatReport(finishedJob())

	assert.Contains(t, report, "State: completed")
	assert.Contains(t, report, "(1m30s)")
	assert.Contains(t, report, "Scrapers: 2, failed: 1, products: 2")
	assert.Contains(t, report, "OK      shop-a: 2 products (fetched 4, built 3, merged 1, skipped missing title: 1)")
	assert.Contains(t, report, "FAILED  shop-b: failed to fetch products: unexpected status code: 503")
}

func TestSubject(t *testing.T) {
	job := finishedJob()
	assert.Equal(t, "Scrape batch 0f8fad5b completed with 1 failed scrapers", Subject(job))

	job.Result.FailedStores = 0
	assert.Equal(t, "Scrape batch 0f8fad5b completed", Subject(job))

	job.State = jobs.StateFailed
	assert.Equal(t, "Scrape batch 0f8fad5b failed", Subject(job))
}

func TestLogNotifier_LogsReport(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	err := NewLogNotifier(logger).SendReport(context.Background(), "ops@example.com", finishedJob())

	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	assert.Contains(t, hook.LastEntry().Message, "ops@example.com")
	assert.Contains(t, hook.LastEntry().Message, "shop-b")
}

func TestSMTPConfigFromEnv(t *testing.T) {
	t.Setenv("SMTP_SERVER", "")
	_, ok := SMTPConfigFromEnv()
	assert.False(t, ok)

	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	cfg, ok := SMTPConfigFromEnv()
	assert.True(t, ok)
	assert.Equal(t, 2525, cfg.Port)
}
