// Package notify reports finished scrape batches to the user who started them.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"shopify-catalog/internal/jobs"
	"shopify-catalog/internal/types"
)

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

// SMTPConfigFromEnv reads SMTP_SERVER, SMTP_PORT, SMTP_EMAIL and
// SMTP_PASSWORD. ok is false when no server is configured.
func SMTPConfigFromEnv() (SMTPConfig, bool) {
	cfg := SMTPConfig{
		Server:       os.Getenv("SMTP_SERVER"),
		Port:         587,
		EmailAddress: os.Getenv("SMTP_EMAIL"),
		Password:     os.Getenv("SMTP_PASSWORD"),
	}
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		cfg.Port = p
	}
	return cfg, cfg.Server != ""
}

// Mailer sends batch reports over SMTP
type Mailer struct {
	config SMTPConfig
	logger types.Logger
}

// NewMailer creates a new SMTP mailer
func NewMailer(config SMTPConfig, logger types.Logger) *Mailer {
	return &Mailer{config: config, logger: logger}
}

// SendReport mails the batch summary to `to`. Servers that refuse AUTH get
// the message unauthenticated.
func (m *Mailer) SendReport(ctx context.Context, to string, job jobs.Job) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Catalog Scraper <%s>", m.config.EmailAddress)
	mail.To = []string{to}
	mail.Subject = Subject(job)
	mail.Text = []byte(FormatReport(job))

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}

	m.logger.Infof("Sent report for batch %s to %s", job.ID, to)
	return nil
}

// LogNotifier writes reports to the log when no mail server is configured
type LogNotifier struct {
	logger types.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger types.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) SendReport(ctx context.Context, to string, job jobs.Job) error {
	l.logger.Infof("%s (for %s)\n%s", Subject(job), to, FormatReport(job))
	return nil
}

// Subject is the report's one-line summary
func Subject(job jobs.Job) string {
	if job.State == jobs.StateFailed {
		return fmt.Sprintf("Scrape batch %s failed", shortID(job.ID))
	}
	failed := 0
	if job.Result != nil {
		failed = job.Result.FailedStores
	}
	if failed > 0 {
		return fmt.Sprintf("Scrape batch %s completed with %d failed scrapers", shortID(job.ID), failed)
	}
	return fmt.Sprintf("Scrape batch %s completed", shortID(job.ID))
}

// FormatReport renders per-source success and failure counts as plain text.
func FormatReport(job jobs.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch: %s\n", job.ID)
	fmt.Fprintf(&b, "State: %s\n", job.State)
	fmt.Fprintf(&b, "Started: %s\n", job.StartedAt.Format(time.RFC3339))
	if job.FinishedAt != nil {
		fmt.Fprintf(&b, "Finished: %s (%s)\n", job.FinishedAt.Format(time.RFC3339), job.FinishedAt.Sub(job.StartedAt).Round(time.Second))
	}
	if job.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", job.Error)
	}
	if job.Result == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "\nScrapers: %d, failed: %d, products: %d\n\n",
		len(job.Result.Stores), job.Result.FailedStores, job.Result.TotalProducts)
	for _, s := range job.Result.Stores {
		if s.Error != "" {
			fmt.Fprintf(&b, "FAILED  %s: %s\n", s.StoreName, s.Error)
			continue
		}
		r := s.Report
		fmt.Fprintf(&b, "OK      %s: %d products (fetched %d, built %d, merged %d%s)\n",
			s.StoreName, len(s.Products), r.Fetched, r.Built, r.Merged, skippedSummary(r.Skipped))
	}
	return b.String()
}

func skippedSummary(skipped map[string]int) string {
	if len(skipped) == 0 {
		return ""
	}
	reasons := make([]string, 0, len(skipped))
	for reason := range skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s: %d", reason, skipped[reason]))
	}
	return ", skipped " + strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
