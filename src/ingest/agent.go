package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"hserr-agent/src/archive"
	"hserr-agent/src/broker"
	"hserr-agent/src/contracts"
	"hserr-agent/src/logger"
)

const groupID = "hserr-ingest"

// StatusUpdater records request outcomes.
type StatusUpdater interface {
	UpdateRequestStatus(ctx context.Context, status *contracts.RequestStatus) error
}

// Agent consumes crash report requests and publishes report chunks.
type Agent struct {
	broker  broker.Broker
	archive archive.Archive
	status  StatusUpdater
	logger  logger.Logger
}

// NewAgent creates a new ingest agent. archive may be nil, in which case
// raw reports are not kept and archive requests fail.
func NewAgent(brk broker.Broker, arc archive.Archive, log logger.Logger) *Agent {
	return &Agent{
		broker:  brk,
		archive: arc,
		logger:  log,
	}
}

// Run starts the agent's main loop.
// It subscribes to hserr.requests and processes incoming requests.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("[IngestAgent] Starting...")

	msgChan, err := a.broker.Subscribe(ctx, contracts.TopicRequests, groupID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicRequests, err)
	}

	a.logger.Info("[IngestAgent] Listening for requests on '%s' topic...", contracts.TopicRequests)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				a.logger.Info("[IngestAgent] Message channel closed, shutting down")
				return nil
			}

			if err := a.processRequest(ctx, msg); err != nil {
				a.logger.Error("[IngestAgent] Error processing request: %v", err)
			}

		case <-ctx.Done():
			a.logger.Info("[IngestAgent] Context cancelled, shutting down")
			return ctx.Err()
		}
	}
}

// SetStatusUpdater makes the agent mark requests it cannot ingest as failed.
func (a *Agent) SetStatusUpdater(s StatusUpdater) {
	a.status = s
}

func (a *Agent) processRequest(ctx context.Context, msg broker.Message) error {
	var request contracts.CrashReportRequest
	if err := msg.Decode(&request); err != nil {
		return err
	}
	_, err := a.Ingest(ctx, request)
	if err != nil && a.status != nil {
		failed := &contracts.RequestStatus{
			RequestID: request.RequestID,
			Name:      request.Name,
			Status:    contracts.StatusFailed,
			Error:     err.Error(),
		}
		if uerr := a.status.UpdateRequestStatus(ctx, failed); uerr != nil {
			a.logger.Error("[IngestAgent] Failed to mark request %s failed: %v", request.RequestID, uerr)
		}
	}
	return err
}

// Ingest loads the report a request points at, archives it and publishes
// its chunks. It returns the new report id.
func (a *Agent) Ingest(ctx context.Context, request contracts.CrashReportRequest) (string, error) {
	a.logger.Info("[IngestAgent] Processing request %s (%s %s)", request.RequestID, request.Source, request.Name)

	raw, err := a.fetch(ctx, request)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", request.RequestID, err)
	}
	lines, err := Parse(raw)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", request.RequestID, err)
	}

	reportID := uuid.New().String()
	metadata := copyMetadata(request.Metadata)
	metadata["source"] = request.Source

	switch {
	case request.Source == contracts.SourceArchive:
		metadata["archive_key"] = request.Location
	case a.archive != nil:
		key := archive.Key(reportID)
		if err := a.archive.Put(ctx, key, raw); err != nil {
			a.logger.Error("[IngestAgent] Failed to archive report %s: %v", reportID, err)
		} else {
			metadata["archive_key"] = key
		}
	}

	chunks := Chunk(lines, request.RequestID, reportID, request.Name, metadata)
	a.logger.Info("[IngestAgent] Split report '%s' into %d chunks", request.Name, len(chunks))

	for _, chunk := range chunks {
		if err := broker.PublishJSON(ctx, a.broker, contracts.TopicReportsRaw, reportID, chunk); err != nil {
			return reportID, fmt.Errorf("failed to publish chunk %d of %s: %w", chunk.ChunkIndex, reportID, err)
		}
		a.logger.Debug("[IngestAgent] Published %s", FormatChunkInfo(chunk))
	}

	a.logger.Info("[IngestAgent] Completed request %s (report %s, %d lines)", request.RequestID, reportID, len(lines))
	return reportID, nil
}

// fetch returns the raw bytes of the requested report. Gzip input is
// decompressed.
func (a *Agent) fetch(ctx context.Context, request contracts.CrashReportRequest) ([]byte, error) {
	switch request.Source {
	case contracts.SourceInline, "":
		return ReadRaw(strings.NewReader(request.Content))
	case contracts.SourcePath:
		f, err := os.Open(request.Location)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadRaw(f)
	case contracts.SourceArchive:
		if a.archive == nil {
			return nil, fmt.Errorf("no archive configured for %s", request.Location)
		}
		data, err := a.archive.Get(ctx, request.Location)
		if err != nil {
			return nil, err
		}
		return ReadRaw(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("unknown request source %q", request.Source)
}
