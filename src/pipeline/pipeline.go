// Package pipeline wires the broker, store, archive and agents for one of
// two modes. The CLI and the MCP server both submit reports through it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"hserr-agent/src/analyze"
	"hserr-agent/src/archive"
	"hserr-agent/src/broker"
	"hserr-agent/src/config"
	"hserr-agent/src/contracts"
	"hserr-agent/src/ingest"
	"hserr-agent/src/logger"
	"hserr-agent/src/store"
)

// Mode selects where agents run and where reports are kept.
type Mode int

const (
	// LocalMode runs both agents in-process over the in-memory broker.
	LocalMode Mode = iota
	// DistributedMode publishes to Redpanda and reads results from
	// Postgres; the agents run as separate processes.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// DetectMode picks DistributedMode when both brokers and Postgres are configured.
func DetectMode(cfg *config.Config) Mode {
	if cfg.IsDistributed() {
		return DistributedMode
	}
	return LocalMode
}

// PollInterval is how often Wait checks the request status.
var PollInterval = 200 * time.Millisecond

// Pipeline accepts crash report requests and yields diagnosis reports.
type Pipeline interface {
	// Submit publishes a request and returns its id.
	Submit(ctx context.Context, request contracts.CrashReportRequest) (string, error)
	// Status returns the current status of a request.
	Status(ctx context.Context, requestID string) (*contracts.RequestStatus, error)
	// Wait blocks until the request completes or fails.
	Wait(ctx context.Context, requestID string) (*contracts.DiagnosisReport, error)
	// Store exposes the report store.
	Store() store.Store
	// Mode reports how the pipeline runs.
	Mode() Mode
	// Close shuts down the pipeline.
	Close() error
}

// New builds the pipeline for cfg.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Pipeline, error) {
	if DetectMode(cfg) == DistributedMode {
		return NewDistributedPipeline(ctx, cfg, log)
	}
	return NewLocalPipeline(ctx, cfg, log)
}

// Start starts the ingest and analyze agents as goroutines.
// Errors are logged to stderr even when log is silent.
func Start(ctx context.Context, brk broker.Broker, st store.Store, arc archive.Archive, log logger.Logger) {
	ingestAgent := ingest.NewAgent(brk, arc, log)
	ingestAgent.SetStatusUpdater(st)
	go func() {
		if err := ingestAgent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[Pipeline] Ingest agent error: %v\n", err)
		}
	}()

	analyzeAgent := analyze.NewAgent(brk, st, log)
	go func() {
		if err := analyzeAgent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[Pipeline] Analyze agent error: %v\n", err)
		}
	}()
}

// base holds what both modes share.
type base struct {
	broker broker.Broker
	store  store.Store
}

// Submit records the request and publishes it to hserr.requests.
func (p *base) Submit(ctx context.Context, request contracts.CrashReportRequest) (string, error) {
	if request.RequestID == "" {
		request.RequestID = "req-" + uuid.New().String()
	}
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = time.Now().UTC()
	}

	if err := p.store.CreateRequest(ctx, request.RequestID, request.Name); err != nil {
		return "", fmt.Errorf("failed to create request record: %w", err)
	}
	if err := broker.PublishJSON(ctx, p.broker, contracts.TopicRequests, request.RequestID, request); err != nil {
		return "", fmt.Errorf("failed to publish request: %w", err)
	}
	return request.RequestID, nil
}

func (p *base) Status(ctx context.Context, requestID string) (*contracts.RequestStatus, error) {
	return p.store.GetRequestStatus(ctx, requestID)
}

func (p *base) Wait(ctx context.Context, requestID string) (*contracts.DiagnosisReport, error) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		status, err := p.store.GetRequestStatus(ctx, requestID)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case contracts.StatusCompleted:
			return p.store.GetReport(ctx, status.ReportID)
		case contracts.StatusFailed:
			return nil, fmt.Errorf("request %s failed: %s", requestID, status.Error)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for request %s: %w", requestID, ctx.Err())
		}
	}
}

func (p *base) Store() store.Store {
	return p.store
}
