package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/olgkv/readmecheck/internal/check"
)

func TestBuildReport(t *testing.T) {
	report := &check.Report{
		RunID:    "0b7c7d2e",
		Document: "README.md",
		Started:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Results: []check.Result{
			{Name: check.NameInternalLinksValid, Checked: 4},
			{
				Name:       check.NameExternalLinksValid,
				Checked:    10,
				Violations: []check.Violation{{Subject: "https://gone.example/ünïcode", Message: "FAIL (Status code: 404)"}},
				Warnings:   []check.Violation{{Subject: "https://flaky.example", Message: "ignored (Timed out)"}},
			},
		},
	}

	data, err := BuildReport(report)
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", data[:min(len(data), 8)])
	}
}
