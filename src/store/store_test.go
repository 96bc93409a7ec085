package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hserr-agent/src/contracts"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func report(id, signature string, minutes int) *contracts.DiagnosisReport {
	return &contracts.DiagnosisReport{
		ID:         id,
		RequestID:  "req-" + id,
		Name:       "hs_err_" + id + ".log",
		Signature:  signature,
		AnalyzedAt: base.Add(time.Duration(minutes) * time.Minute),
		Diagnostics: []contracts.DiagnosticEntry{
			{Code: "crash.null-pointer", Severity: "ERROR", Message: "null", Rank: 1},
		},
		Errors: 1,
	}
}

// stores returns every implementation that runs without external services.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "hserr.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_Requests(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.CreateRequest(ctx, "req-1", "hs_err_pid1.log"); err != nil {
				t.Fatalf("CreateRequest failed: %v", err)
			}
			// Creating twice keeps the first record.
			if err := s.CreateRequest(ctx, "req-1", "other.log"); err != nil {
				t.Fatalf("second CreateRequest failed: %v", err)
			}

			status, err := s.GetRequestStatus(ctx, "req-1")
			if err != nil {
				t.Fatalf("GetRequestStatus failed: %v", err)
			}
			if status.Status != contracts.StatusPending || status.Name != "hs_err_pid1.log" {
				t.Errorf("GetRequestStatus() = %+v", status)
			}

			err = s.UpdateRequestStatus(ctx, &contracts.RequestStatus{
				RequestID: "req-1",
				Name:      "hs_err_pid1.log",
				Status:    contracts.StatusCompleted,
				ReportID:  "rep-1",
			})
			if err != nil {
				t.Fatalf("UpdateRequestStatus failed: %v", err)
			}
			status, _ = s.GetRequestStatus(ctx, "req-1")
			if status.Status != contracts.StatusCompleted || status.ReportID != "rep-1" {
				t.Errorf("after update = %+v", status)
			}

			if _, err := s.GetRequestStatus(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetRequestStatus(missing) error = %v, expected ErrNotFound", err)
			}
			if err := s.UpdateRequestStatus(ctx, &contracts.RequestStatus{RequestID: "missing"}); !errors.Is(err, ErrNotFound) {
				t.Errorf("UpdateRequestStatus(missing) error = %v, expected ErrNotFound", err)
			}
		})
	}
}

func TestStore_Reports(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range []*contracts.DiagnosisReport{
				report("a", "sig-1", 0),
				report("b", "sig-2", 1),
				report("c", "sig-1", 2),
				report("d", "", 3),
			} {
				if err := s.SaveReport(ctx, r); err != nil {
					t.Fatalf("SaveReport(%s) failed: %v", r.ID, err)
				}
			}

			got, err := s.GetReport(ctx, "a")
			if err != nil {
				t.Fatalf("GetReport failed: %v", err)
			}
			if got.Name != "hs_err_a.log" || len(got.Diagnostics) != 1 || got.Recurrence != 2 {
				t.Errorf("GetReport(a) = %+v", got)
			}
			if !got.AnalyzedAt.Equal(base) {
				t.Errorf("AnalyzedAt = %v, expected %v", got.AnalyzedAt, base)
			}

			list, err := s.ListReports(ctx, Filter{})
			if err != nil {
				t.Fatalf("ListReports failed: %v", err)
			}
			var ids []string
			for _, r := range list {
				ids = append(ids, r.ID)
			}
			if want := "d,c,b,a"; strings.Join(ids, ",") != want {
				t.Errorf("ListReports() ids = %s, expected %s", strings.Join(ids, ","), want)
			}
			if list[0].Recurrence != 0 {
				t.Errorf("unsigned report recurrence = %d, expected 0", list[0].Recurrence)
			}

			list, _ = s.ListReports(ctx, Filter{Signature: "sig-1", Limit: 1})
			if len(list) != 1 || list[0].ID != "c" {
				t.Errorf("ListReports(sig-1, 1) = %+v", list)
			}

			n, err := s.CountBySignature(ctx, "sig-1")
			if err != nil || n != 2 {
				t.Errorf("CountBySignature(sig-1) = %d, %v, expected 2", n, err)
			}
			if n, _ := s.CountBySignature(ctx, ""); n != 0 {
				t.Errorf("CountBySignature(\"\") = %d, expected 0", n)
			}

			// Saving again replaces.
			updated := report("a", "sig-2", 0)
			if err := s.SaveReport(ctx, updated); err != nil {
				t.Fatalf("SaveReport(replace) failed: %v", err)
			}
			if n, _ := s.CountBySignature(ctx, "sig-2"); n != 2 {
				t.Errorf("CountBySignature(sig-2) after replace = %d, expected 2", n)
			}

			if _, err := s.GetReport(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetReport(missing) error = %v, expected ErrNotFound", err)
			}
			if err := s.SaveReport(ctx, &contracts.DiagnosisReport{}); err == nil {
				t.Error("SaveReport without id should fail")
			}
		})
	}
}

func TestBindNumbersPlaceholders(t *testing.T) {
	s := &sqlStore{numbered: true}
	got := s.bind("SELECT a FROM t WHERE b = ? AND c = ?")
	if want := "SELECT a FROM t WHERE b = $1 AND c = $2"; got != want {
		t.Errorf("bind() = %q, expected %q", got, want)
	}
	plain := &sqlStore{}
	if got := plain.bind("x = ?"); got != "x = ?" {
		t.Errorf("bind() = %q, expected it unchanged", got)
	}
}
