package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hserr-agent/src/contracts"
)

// sqlStore implements Store over database/sql. Queries are written with
// "?" placeholders and rebound for drivers that number them.
type sqlStore struct {
	db       *sql.DB
	numbered bool
}

// bind rewrites "?" placeholders as $1, $2, ... when the driver needs it.
func (s *sqlStore) bind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateRequest creates a new pending request record.
func (s *sqlStore) CreateRequest(ctx context.Context, requestID string, name string) error {
	query := s.bind(`
		INSERT INTO requests (request_id, name, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (request_id) DO NOTHING
	`)

	_, err := s.db.ExecContext(ctx, query, requestID, name, contracts.StatusPending, timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetRequestStatus returns the status of a request.
func (s *sqlStore) GetRequestStatus(ctx context.Context, requestID string) (*contracts.RequestStatus, error) {
	query := s.bind(`
		SELECT request_id, name, status, report_id, error
		FROM requests
		WHERE request_id = ?
	`)

	var status contracts.RequestStatus
	err := s.db.QueryRowContext(ctx, query, requestID).Scan(
		&status.RequestID,
		&status.Name,
		&status.Status,
		&status.ReportID,
		&status.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request status: %w", err)
	}
	return &status, nil
}

// UpdateRequestStatus updates the status of a request.
func (s *sqlStore) UpdateRequestStatus(ctx context.Context, status *contracts.RequestStatus) error {
	query := s.bind(`
		UPDATE requests
		SET status = ?, report_id = ?, error = ?
		WHERE request_id = ?
	`)

	result, err := s.db.ExecContext(ctx, query, status.Status, status.ReportID, status.Error, status.RequestID)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("request %s: %w", status.RequestID, ErrNotFound)
	}
	return nil
}

// SaveReport saves a report, replacing one with the same id.
func (s *sqlStore) SaveReport(ctx context.Context, report *contracts.DiagnosisReport) error {
	if report.ID == "" {
		return fmt.Errorf("report has no id")
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := s.bind(`
		INSERT INTO reports (id, request_id, name, signature, errors, warnings, analyzed_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			request_id = excluded.request_id,
			name = excluded.name,
			signature = excluded.signature,
			errors = excluded.errors,
			warnings = excluded.warnings,
			analyzed_at = excluded.analyzed_at,
			body = excluded.body
	`)

	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.RequestID,
		report.Name,
		report.Signature,
		report.Errors,
		report.Warnings,
		timestamp(report.AnalyzedAt),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

const recurrenceColumn = `
	CASE WHEN r.signature = '' THEN 0
	ELSE (SELECT COUNT(*) FROM reports s WHERE s.signature = r.signature) END`

// GetReport retrieves a report by id.
func (s *sqlStore) GetReport(ctx context.Context, id string) (*contracts.DiagnosisReport, error) {
	query := s.bind(`SELECT r.body, ` + recurrenceColumn + ` FROM reports r WHERE r.id = ?`)

	var body []byte
	var recurrence int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&body, &recurrence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return decodeReport(body, recurrence)
}

// ListReports returns reports newest first.
func (s *sqlStore) ListReports(ctx context.Context, filter Filter) ([]contracts.DiagnosisReport, error) {
	query := `SELECT r.body, ` + recurrenceColumn + ` FROM reports r`
	var args []any
	if filter.Signature != "" {
		query += ` WHERE r.signature = ?`
		args = append(args, filter.Signature)
	}
	query += ` ORDER BY r.analyzed_at DESC, r.id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []contracts.DiagnosisReport
	for rows.Next() {
		var body []byte
		var recurrence int
		if err := rows.Scan(&body, &recurrence); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report, err := decodeReport(body, recurrence)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// CountBySignature returns how many stored reports share signature.
func (s *sqlStore) CountBySignature(ctx context.Context, signature string) (int, error) {
	if signature == "" {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT COUNT(*) FROM reports WHERE signature = ?`), signature).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// timestamp renders t in a fixed-width UTC form that sorts as text and
// parses as a Postgres timestamptz.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func decodeReport(body []byte, recurrence int) (*contracts.DiagnosisReport, error) {
	var report contracts.DiagnosisReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	report.Recurrence = recurrence
	return &report, nil
}
