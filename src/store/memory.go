package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hserr-agent/src/contracts"
)

// MemoryStore is an in-memory implementation of Store.
// Useful for testing and local mode.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*contracts.RequestStatus
	reports  map[string]contracts.DiagnosisReport
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*contracts.RequestStatus),
		reports:  make(map[string]contracts.DiagnosisReport),
	}
}

// CreateRequest creates a new pending request record.
func (s *MemoryStore) CreateRequest(ctx context.Context, requestID string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[requestID]; exists {
		return nil
	}
	s.requests[requestID] = &contracts.RequestStatus{
		RequestID: requestID,
		Name:      name,
		Status:    contracts.StatusPending,
	}
	return nil
}

// GetRequestStatus returns the status of a request.
func (s *MemoryStore) GetRequestStatus(ctx context.Context, requestID string) (*contracts.RequestStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, exists := s.requests[requestID]
	if !exists {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
	}
	statusCopy := *status
	return &statusCopy, nil
}

// UpdateRequestStatus updates the status of a request.
func (s *MemoryStore) UpdateRequestStatus(ctx context.Context, status *contracts.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.requests[status.RequestID]
	if !exists {
		return fmt.Errorf("request %s: %w", status.RequestID, ErrNotFound)
	}
	updated := *status
	if updated.Name == "" {
		updated.Name = existing.Name
	}
	s.requests[status.RequestID] = &updated
	return nil
}

// SaveReport saves a report, replacing one with the same id.
func (s *MemoryStore) SaveReport(ctx context.Context, report *contracts.DiagnosisReport) error {
	if report.ID == "" {
		return fmt.Errorf("report has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *report
	stored.Diagnostics = append([]contracts.DiagnosticEntry(nil), report.Diagnostics...)
	s.reports[report.ID] = stored
	return nil
}

// GetReport retrieves a report by id.
func (s *MemoryStore) GetReport(ctx context.Context, id string) (*contracts.DiagnosisReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reports[id]
	if !exists {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	report.Recurrence = s.countLocked(report.Signature)
	return &report, nil
}

// ListReports returns reports newest first.
func (s *MemoryStore) ListReports(ctx context.Context, filter Filter) ([]contracts.DiagnosisReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.DiagnosisReport
	for _, r := range s.reports {
		if filter.Signature != "" && r.Signature != filter.Signature {
			continue
		}
		r.Recurrence = s.countLocked(r.Signature)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AnalyzedAt.Equal(out[j].AnalyzedAt) {
			return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CountBySignature returns how many stored reports share signature.
func (s *MemoryStore) CountBySignature(ctx context.Context, signature string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(signature), nil
}

func (s *MemoryStore) countLocked(signature string) int {
	if signature == "" {
		return 0
	}
	n := 0
	for _, r := range s.reports {
		if r.Signature == signature {
			n++
		}
	}
	return n
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
