// Package store defines the interface for persistent data storage.
package store

import (
	"context"
	"errors"

	"hserr-agent/src/contracts"
)

// ErrNotFound is returned when a report or request does not exist.
var ErrNotFound = errors.New("not found")

// Filter narrows ListReports.
type Filter struct {
	// Signature keeps only reports with this crash signature.
	Signature string
	// Limit caps the result; zero means no limit.
	Limit int
}

// Store defines the interface for persisting diagnosis reports and request status.
type Store interface {
	// CreateRequest creates a new pending request record
	CreateRequest(ctx context.Context, requestID string, name string) error

	// GetRequestStatus returns the status of a request
	GetRequestStatus(ctx context.Context, requestID string) (*contracts.RequestStatus, error)

	// UpdateRequestStatus updates the status of a request
	UpdateRequestStatus(ctx context.Context, status *contracts.RequestStatus) error

	// SaveReport saves a report, replacing one with the same id
	SaveReport(ctx context.Context, report *contracts.DiagnosisReport) error

	// GetReport retrieves a report by id, with its recurrence filled in
	GetReport(ctx context.Context, id string) (*contracts.DiagnosisReport, error)

	// ListReports returns reports newest first, with recurrence filled in
	ListReports(ctx context.Context, filter Filter) ([]contracts.DiagnosisReport, error)

	// CountBySignature returns how many stored reports share a signature
	CountBySignature(ctx context.Context, signature string) (int, error)

	// Close closes the store connection
	Close() error
}
