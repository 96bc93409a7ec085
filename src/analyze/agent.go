package analyze

import (
	"context"
	"fmt"
	"time"

	"hserr-agent/src/broker"
	"hserr-agent/src/contracts"
	"hserr-agent/src/ingest"
	"hserr-agent/src/logger"
	"hserr-agent/src/rules"
	"hserr-agent/src/store"
)

const groupID = "hserr-analyze"

// Agent reassembles report chunks, analyzes complete reports, stores them
// and publishes the diagnosis.
type Agent struct {
	broker    broker.Broker
	store     store.Store
	logger    logger.Logger
	assembler *ingest.Assembler
	now       func() time.Time
	rules     []rules.Option
}

// NewAgent creates a new analyze agent.
func NewAgent(brk broker.Broker, st store.Store, log logger.Logger, opts ...rules.Option) *Agent {
	return &Agent{
		broker:    brk,
		store:     st,
		logger:    log,
		assembler: ingest.NewAssembler(),
		now:       time.Now,
		rules:     opts,
	}
}

// Run starts the agent's main loop.
// It subscribes to hserr.reports.raw and processes incoming chunks.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("[AnalyzeAgent] Starting...")

	msgChan, err := a.broker.Subscribe(ctx, contracts.TopicReportsRaw, groupID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicReportsRaw, err)
	}

	a.logger.Info("[AnalyzeAgent] Listening for report chunks on '%s' topic...", contracts.TopicReportsRaw)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				a.logger.Info("[AnalyzeAgent] Message channel closed, shutting down")
				return nil
			}

			if err := a.processChunk(ctx, msg); err != nil {
				a.logger.Error("[AnalyzeAgent] Error processing chunk: %v", err)
			}

		case <-ctx.Done():
			a.logger.Info("[AnalyzeAgent] Context cancelled, shutting down")
			return ctx.Err()
		}
	}
}

// processChunk adds a chunk and analyzes the report once it is complete.
func (a *Agent) processChunk(ctx context.Context, msg broker.Message) error {
	var chunk contracts.ReportChunk
	if err := msg.Decode(&chunk); err != nil {
		return err
	}

	a.logger.Debug("[AnalyzeAgent] Received %s", ingest.FormatChunkInfo(chunk))

	lines, complete, err := a.assembler.Add(chunk)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}

	report := Analyze(lines, a.now(), a.rules...)
	report.ID = chunk.ReportID
	report.RequestID = chunk.RequestID
	report.Name = chunk.Name

	return a.Complete(ctx, &report)
}

// Complete stores report, fills in its recurrence, marks the request done
// and publishes the diagnosis.
func (a *Agent) Complete(ctx context.Context, report *contracts.DiagnosisReport) error {
	if err := a.store.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}

	n, err := a.store.CountBySignature(ctx, report.Signature)
	if err != nil {
		a.logger.Error("[AnalyzeAgent] Failed to count recurrence for %s: %v", report.ID, err)
	}
	report.Recurrence = n

	if report.RequestID != "" {
		status := &contracts.RequestStatus{
			RequestID: report.RequestID,
			Name:      report.Name,
			Status:    contracts.StatusCompleted,
			ReportID:  report.ID,
		}
		if err := a.store.UpdateRequestStatus(ctx, status); err != nil {
			a.logger.Debug("[AnalyzeAgent] No request record for %s: %v", report.RequestID, err)
		}
	}

	key := report.RequestID
	if key == "" {
		key = report.ID
	}
	if err := broker.PublishJSON(ctx, a.broker, contracts.TopicDiagnoses, key, report); err != nil {
		return fmt.Errorf("failed to publish report %s: %w", report.ID, err)
	}

	a.logger.Info("[AnalyzeAgent] Published report %s for '%s' (%d errors, %d warnings, seen %d time(s))",
		report.ID, report.Name, report.Errors, report.Warnings, report.Recurrence)
	return nil
}
