package analysis

import (
	"strings"
	"testing"
)

func TestCatalogTemplates(t *testing.T) {
	seen := make(map[Code]bool)
	for _, e := range Catalog() {
		if seen[e.Code] {
			t.Errorf("duplicate code %s", e.Code)
		}
		seen[e.Code] = true
		if e.Template == "" {
			t.Errorf("code %s has no template", e.Code)
		}
		switch e.Severity {
		case SeverityError, SeverityWarn, SeverityInfo:
		default:
			t.Errorf("code %s has severity %q", e.Code, e.Severity)
		}
		if !strings.Contains(string(e.Code), ".") {
			t.Errorf("code %s has no group prefix", e.Code)
		}
	}
}

func TestCatalogSorted(t *testing.T) {
	c := Catalog()
	for i := 1; i < len(c); i++ {
		if c[i-1].Code >= c[i].Code {
			t.Fatalf("catalog not sorted at %s, %s", c[i-1].Code, c[i].Code)
		}
	}
}

func TestNewRendersTemplate(t *testing.T) {
	d := New(LogStale, 45)
	if d.Severity != SeverityInfo {
		t.Errorf("severity = %s, expected INFO", d.Severity)
	}
	if !strings.Contains(d.Message, "45 days ago") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestNewPanicsOnUnknownCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown code")
		}
	}()
	New(Code("no.such-code"))
}

func TestListOperations(t *testing.T) {
	var l List
	l.Append(New(LogTruncated))
	l.Append(New(LogUnidentified, 3))
	l.Prepend(New(ReleaseOld, 400))

	got := l.Codes()
	expected := []Code{ReleaseOld, LogTruncated, LogUnidentified}
	if len(got) != len(expected) {
		t.Fatalf("Codes() = %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Codes()[%d] = %s, expected %s", i, got[i], expected[i])
		}
	}

	if !l.Remove(LogTruncated) {
		t.Error("Remove(log.truncated) = false, expected true")
	}
	if l.Has(LogTruncated) {
		t.Error("log.truncated still present after Remove")
	}
	if l.Remove(LogTruncated) {
		t.Error("second Remove returned true")
	}
	if len(l) != 2 || l[0].Code != ReleaseOld || l[1].Code != LogUnidentified {
		t.Errorf("list after Remove = %v", l.Codes())
	}
	if l.Count(SeverityInfo) != 1 || l.Count(SeverityWarn) != 1 {
		t.Errorf("Count = info %d warn %d", l.Count(SeverityInfo), l.Count(SeverityWarn))
	}
}

func TestSeverityRank(t *testing.T) {
	if !(SeverityError.Rank() < SeverityWarn.Rank() && SeverityWarn.Rank() < SeverityInfo.Rank()) {
		t.Error("severity ranks out of order")
	}
}
