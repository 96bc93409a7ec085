package mcp

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"hserr-agent/src/config"
	"hserr-agent/src/contracts"
	"hserr-agent/src/store"
)

// ReportCache keeps recently analyzed reports in front of the report store
// so get_report does not hit the database for reports it just produced.
type ReportCache struct {
	cache *lru.Cache[string, contracts.DiagnosisReport]
	store store.Store
}

// NewReportCache creates a cache holding at most size reports. A size of
// zero or less uses config.DefaultCacheSize.
func NewReportCache(size int, st store.Store) (*ReportCache, error) {
	if size <= 0 {
		size = config.DefaultCacheSize
	}
	cache, err := lru.New[string, contracts.DiagnosisReport](size)
	if err != nil {
		return nil, err
	}
	return &ReportCache{cache: cache, store: st}, nil
}

// Put caches a report under its id.
func (c *ReportCache) Put(report contracts.DiagnosisReport) {
	c.cache.Add(report.ID, report)
}

// Get returns a report from the cache, falling back to the store.
func (c *ReportCache) Get(ctx context.Context, reportID string) (contracts.DiagnosisReport, error) {
	if r, ok := c.cache.Get(reportID); ok {
		return r, nil
	}
	r, err := c.store.GetReport(ctx, reportID)
	if err != nil {
		return contracts.DiagnosisReport{}, err
	}
	c.cache.Add(reportID, *r)
	return *r, nil
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	return c.cache.Len()
}
