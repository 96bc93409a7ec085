package pipeline

import (
	"context"
	"fmt"

	"hserr-agent/src/archive"
	"hserr-agent/src/broker"
	"hserr-agent/src/config"
	"hserr-agent/src/logger"
	"hserr-agent/src/store"
)

// LocalPipeline runs everything in one process over the in-memory broker.
// Reports are kept in SQLite when a path is configured, in memory otherwise.
// Raw reports go to the configured archive bucket, or stay in memory.
type LocalPipeline struct {
	base
	archive archive.Archive
	cancel  context.CancelFunc
}

// NewLocalPipeline creates the pipeline and starts its agents.
func NewLocalPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*LocalPipeline, error) {
	var st store.Store = store.NewMemoryStore()
	if cfg.SQLitePath != "" {
		sqlite, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open report history: %w", err)
		}
		st = sqlite
	}

	var arc archive.Archive = archive.NewMemoryArchive()
	if cfg.Archive.Enabled() {
		minioArchive, err := archive.NewMinioArchive(cfg.Archive)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to create report archive: %w", err)
		}
		arc = minioArchive
	}

	agentCtx, cancel := context.WithCancel(ctx)
	p := &LocalPipeline{
		base:    base{broker: broker.NewInMemoryBroker(), store: st},
		archive: arc,
		cancel:  cancel,
	}
	Start(agentCtx, p.broker, p.store, p.archive, log)
	return p, nil
}

func (p *LocalPipeline) Mode() Mode { return LocalMode }

// Close stops the agents and shuts down the broker and store.
func (p *LocalPipeline) Close() error {
	p.cancel()
	if err := p.broker.Close(); err != nil {
		return err
	}
	return p.store.Close()
}
