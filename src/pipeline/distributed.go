package pipeline

import (
	"context"
	"fmt"

	"hserr-agent/src/broker"
	"hserr-agent/src/config"
	"hserr-agent/src/logger"
	"hserr-agent/src/store"
)

// DistributedPipeline publishes requests to Redpanda and reads results
// from Postgres. The ingest and analyze agents run as their own processes.
type DistributedPipeline struct {
	base
}

// NewDistributedPipeline connects to the configured brokers and database.
func NewDistributedPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*DistributedPipeline, error) {
	redpandaBroker, err := broker.NewRedpandaBroker(cfg.Brokers(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
	}

	postgresStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		redpandaBroker.Close()
		return nil, fmt.Errorf("failed to create Postgres store: %w", err)
	}

	return &DistributedPipeline{base{broker: redpandaBroker, store: postgresStore}}, nil
}

func (p *DistributedPipeline) Mode() Mode { return DistributedMode }

// Close shuts down the pipeline.
func (p *DistributedPipeline) Close() error {
	if err := p.broker.Close(); err != nil {
		return err
	}
	return p.store.Close()
}
