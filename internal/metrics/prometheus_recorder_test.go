package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncFetchAttempt("GET")
	pr.IncFetchAttempt("GET")
	pr.IncFetchAttempt("HEAD")
	pr.IncRetry("example.com", 503)
	pr.IncRetryExhausted("example.com")
	pr.ObserveFetch(OutcomeOK, 150*time.Millisecond)
	pr.SetViolations("headers_sorted", 2)

	if got := testutil.ToFloat64(pr.attempts.WithLabelValues("GET")); got != 2 {
		t.Fatalf("expected 2 GET attempts, got %v", got)
	}
	if got := testutil.ToFloat64(pr.retries.WithLabelValues("example.com", "503")); got != 1 {
		t.Fatalf("expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(pr.violations.WithLabelValues("headers_sorted")); got != 2 {
		t.Fatalf("expected 2 violations, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncFetchAttempt("GET")

	path := filepath.Join(t.TempDir(), "readmecheck.prom")
	if err := pr.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `readmecheck_fetch_attempts_total{method="GET"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", data)
	}
}
