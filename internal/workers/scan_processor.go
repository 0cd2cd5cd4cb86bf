// Package workers contains the background scan that pulls purchase email
// from the inbox and drives it through the resolution pipeline.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/classify"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/email"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/extract"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/filter"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/policy"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/resolver"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// ScanConfig configures the scan processor behavior.
type ScanConfig struct {
	CheckInterval     time.Duration
	SearchQuery       string
	SearchAfterDays   int
	MaxEmailsPerRun   int
	UnreadOnly        bool
	DryRun            bool
	UserID            string
	ProcessingTimeout time.Duration
}

// ScanMetrics tracks scan statistics.
type ScanMetrics struct {
	TotalRuns       atomic.Int64
	TotalEmails     atomic.Int64
	ProcessedEmails atomic.Int64
	SkippedEmails   atomic.Int64
	BlockedEmails   atomic.Int64
	ErrorEmails     atomic.Int64
	OrdersCreated   atomic.Int64
	OrdersUpdated   atomic.Int64
	ThreadHints     atomic.Int64
	Merges          atomic.Int64
	KeyUpgrades     atomic.Int64
	LastRun         atomic.Value // time.Time
	LastRunID       atomic.Value // string
	LastError       atomic.Value // string
}

// MetricsSnapshot is the JSON-friendly view served by the stats endpoint.
type MetricsSnapshot struct {
	TotalRuns       int64     `json:"total_runs"`
	TotalEmails     int64     `json:"total_emails"`
	ProcessedEmails int64     `json:"processed_emails"`
	SkippedEmails   int64     `json:"skipped_emails"`
	BlockedEmails   int64     `json:"blocked_emails"`
	ErrorEmails     int64     `json:"error_emails"`
	OrdersCreated   int64     `json:"orders_created"`
	OrdersUpdated   int64     `json:"orders_updated"`
	ThreadHints     int64     `json:"thread_hints"`
	Merges          int64     `json:"merges"`
	KeyUpgrades     int64     `json:"key_upgrades"`
	LastRun         time.Time `json:"last_run,omitempty"`
	LastRunID       string    `json:"last_run_id,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

// Snapshot copies the counters.
func (m *ScanMetrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		TotalRuns:       m.TotalRuns.Load(),
		TotalEmails:     m.TotalEmails.Load(),
		ProcessedEmails: m.ProcessedEmails.Load(),
		SkippedEmails:   m.SkippedEmails.Load(),
		BlockedEmails:   m.BlockedEmails.Load(),
		ErrorEmails:     m.ErrorEmails.Load(),
		OrdersCreated:   m.OrdersCreated.Load(),
		OrdersUpdated:   m.OrdersUpdated.Load(),
		ThreadHints:     m.ThreadHints.Load(),
		Merges:          m.Merges.Load(),
		KeyUpgrades:     m.KeyUpgrades.Load(),
	}
	if v, ok := m.LastRun.Load().(time.Time); ok {
		s.LastRun = v
	}
	if v, ok := m.LastRunID.Load().(string); ok {
		s.LastRunID = v
	}
	if v, ok := m.LastError.Load().(string); ok {
		s.LastError = v
	}
	return s
}

// ScanProcessor runs the per-email pipeline:
// filter -> extract -> classify -> policy enrichment -> resolve.
type ScanProcessor struct {
	ctx        context.Context
	cancel     context.CancelFunc
	config     *ScanConfig
	client     email.Client
	store      storage.Store
	filter     *filter.Filter
	extractor  *extract.Extractor
	classifier *classify.Classifier
	policies   policy.Extractor
	resolver   *resolver.Resolver
	paused     atomic.Bool
	logger     *slog.Logger
	metrics    *ScanMetrics
}

// NewScanProcessor creates the scan processor service.
func NewScanProcessor(
	config *ScanConfig,
	client email.Client,
	store storage.Store,
	res *resolver.Resolver,
	policies policy.Extractor,
	logger *slog.Logger,
) *ScanProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &ScanProcessor{
		ctx:        ctx,
		cancel:     cancel,
		config:     config,
		client:     client,
		store:      store,
		filter:     filter.New(),
		extractor:  extract.New(),
		classifier: classify.New(),
		policies:   policies,
		resolver:   res,
		logger:     logger,
		metrics:    &ScanMetrics{},
	}
}

// Start begins the background scan loop.
func (p *ScanProcessor) Start() {
	p.logger.Info("Starting inbox scan service",
		"check_interval", p.config.CheckInterval,
		"search_after_days", p.config.SearchAfterDays,
		"dry_run", p.config.DryRun,
		"max_emails_per_run", p.config.MaxEmailsPerRun)

	if err := p.client.HealthCheck(); err != nil {
		p.logger.Error("Email client health check failed", "error", err)
		return
	}
	go p.scanLoop()
}

// Stop gracefully stops the scan loop.
func (p *ScanProcessor) Stop() {
	p.logger.Info("Stopping inbox scan service")
	p.cancel()
}

// Pause temporarily pauses scanning.
func (p *ScanProcessor) Pause() {
	p.paused.Store(true)
	p.logger.Info("Inbox scan paused")
}

// Resume resumes scanning.
func (p *ScanProcessor) Resume() {
	p.paused.Store(false)
	p.logger.Info("Inbox scan resumed")
}

// IsPaused reports whether the processor is paused.
func (p *ScanProcessor) IsPaused() bool {
	return p.paused.Load()
}

// IsRunning reports whether the processor has not been stopped.
func (p *ScanProcessor) IsRunning() bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
		return true
	}
}

// Metrics returns the live counters.
func (p *ScanProcessor) Metrics() *ScanMetrics {
	return p.metrics
}

func (p *ScanProcessor) scanLoop() {
	ticker := time.NewTicker(p.config.CheckInterval)
	defer ticker.Stop()

	initialDelay := time.NewTimer(10 * time.Second)
	defer initialDelay.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Info("Inbox scan loop stopped")
			return
		case <-initialDelay.C:
			p.RunScan()
		case <-ticker.C:
			if !p.paused.Load() {
				p.RunScan()
			}
		}
	}
}

// RunScan performs a single scan run.
func (p *ScanProcessor) RunScan() {
	runID := uuid.NewString()
	start := time.Now()
	p.metrics.TotalRuns.Add(1)
	p.metrics.LastRunID.Store(runID)

	logger := p.logger.With("run_id", runID)
	logger.Info("Starting scan run")

	ctx := p.ctx
	if p.config.ProcessingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, p.config.ProcessingTimeout)
		defer cancel()
	}

	query := p.config.SearchQuery
	if query == "" {
		query = email.BuildSearchQuery(p.config.SearchAfterDays, p.config.UnreadOnly, "")
	}
	messages, err := p.client.Search(query)
	if err != nil {
		logger.Error("Email search failed", "error", err)
		p.metrics.LastError.Store(err.Error())
		return
	}
	if p.config.MaxEmailsPerRun > 0 && len(messages) > p.config.MaxEmailsPerRun {
		messages = messages[:p.config.MaxEmailsPerRun]
	}

	logger.Info("Found emails to process", "count", len(messages))
	p.metrics.TotalEmails.Add(int64(len(messages)))

	for i := range messages {
		select {
		case <-ctx.Done():
			logger.Warn("Scan run cancelled", "remaining", len(messages)-i)
			return
		default:
		}
		if err := p.ProcessMessage(ctx, &messages[i]); err != nil {
			logger.Error("Failed to process email", "email_id", messages[i].ID, "error", err)
			p.metrics.ErrorEmails.Add(1)
			p.metrics.LastError.Store(err.Error())
		}
	}

	p.metrics.LastRun.Store(time.Now())
	logger.Info("Scan run complete", "duration", time.Since(start))
}

// ProcessMessage runs one email through the pipeline. Reprocessing a known
// email is a no-op thanks to the processed-ID set, which is what makes
// re-scans and retries safe.
func (p *ScanProcessor) ProcessMessage(ctx context.Context, msg *email.Message) error {
	done, err := p.store.IsEmailProcessed(msg.ID)
	if err != nil {
		return fmt.Errorf("processed check: %w", err)
	}
	if done {
		p.metrics.SkippedEmails.Add(1)
		return nil
	}

	body := msg.Body()
	verdict := p.filter.Evaluate(msg.From, msg.Subject, body)

	record := &orders.OrderEmail{
		EmailID:        msg.ID,
		ThreadID:       msg.ThreadID,
		UserID:         p.config.UserID,
		ReceivedAt:     msg.Date,
		MerchantDomain: verdict.MerchantDomain,
		Blocked:        verdict.Blocked,
		BlockReason:    verdict.Reason,
	}

	if verdict.Blocked {
		p.metrics.BlockedEmails.Add(1)
		if p.config.DryRun {
			p.logger.Debug("Dry run: would block email",
				"email_id", msg.ID, "reason", verdict.Reason)
			return nil
		}
		record.Processed = true
		if err := p.store.StoreOrderEmail(record); err != nil {
			return fmt.Errorf("store blocked email: %w", err)
		}
		return p.store.MarkEmailProcessed(msg.ID)
	}

	fields := p.extractor.Extract(msg.Subject, body, msg.Date)
	emailType := p.classifier.Classify(msg.Subject, body)
	confirmed := p.classifier.PurchaseConfirmed(msg.Subject, body, fields)
	seed := p.classifier.ShouldSeedOrder(emailType, confirmed, fields)

	p.enrichPolicy(ctx, fields, verdict.MerchantDomain, body)

	record.EmailType = emailType
	record.Extracted = fields

	if p.config.DryRun {
		p.logger.Info("Dry run: would resolve email",
			"email_id", msg.ID,
			"merchant", verdict.MerchantDomain,
			"email_type", emailType,
			"seed", seed,
			"order_id", fields.OrderID,
			"tracking_number", fields.TrackingNumber)
		return nil
	}

	if err := p.store.StoreOrderEmail(record); err != nil {
		return fmt.Errorf("store email record: %w", err)
	}

	outcome, err := p.resolver.ResolveEmail(resolver.Input{
		Email:        record,
		MerchantName: msg.SenderName(),
		Fields:       fields,
		Seed:         seed,
	})
	if err != nil {
		return fmt.Errorf("resolve email: %w", err)
	}
	p.recordOutcome(outcome)

	record.Processed = true
	if err := p.store.StoreOrderEmail(record); err != nil {
		return fmt.Errorf("update email record: %w", err)
	}
	if err := p.store.MarkEmailProcessed(msg.ID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	p.metrics.ProcessedEmails.Add(1)
	return nil
}

// enrichPolicy asks the policy extractor about return-anchor text and folds
// validated answers into the extracted fields. Final-sale emails are skipped
// outright; a final-sale item has no return deadline worth estimating.
func (p *ScanProcessor) enrichPolicy(ctx context.Context, fields *orders.ExtractedFields, merchantDomain, body string) {
	if p.policies == nil || !p.policies.IsEnabled() {
		return
	}
	if !fields.HasReturnAnchors || fields.IsFinalSale {
		return
	}
	if fields.ExplicitReturnBy != nil && fields.ReturnWindowDays != nil {
		return
	}

	result, err := p.policies.ExtractPolicy(ctx, body, merchantDomain)
	if err != nil {
		p.logger.Warn("Policy extraction failed", "merchant", merchantDomain, "error", err)
		return
	}
	if result == nil || result.Confidence == orders.ConfidenceUnknown {
		return
	}
	orders.SetIfAbsent(&fields.ExplicitReturnBy, result.DeadlineDate)
	orders.SetIfAbsent(&fields.ReturnWindowDays, result.WindowDays)
}

func (p *ScanProcessor) recordOutcome(out *resolver.Outcome) {
	switch out.Action {
	case resolver.ActionCreated:
		p.metrics.OrdersCreated.Add(1)
	case resolver.ActionUpdated:
		p.metrics.OrdersUpdated.Add(1)
	case resolver.ActionThreadHinted:
		p.metrics.ThreadHints.Add(1)
	case resolver.ActionMerged:
		p.metrics.Merges.Add(1)
	case resolver.ActionKeyUpgraded:
		p.metrics.KeyUpgrades.Add(1)
	}
}
