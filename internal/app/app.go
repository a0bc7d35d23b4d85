package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/olgkv/readmecheck/internal/check"
	"github.com/olgkv/readmecheck/internal/config"
	"github.com/olgkv/readmecheck/internal/extract"
	"github.com/olgkv/readmecheck/internal/fetch"
	"github.com/olgkv/readmecheck/internal/logfields"
	"github.com/olgkv/readmecheck/internal/metrics"
	"github.com/olgkv/readmecheck/internal/pdf"
	"github.com/olgkv/readmecheck/internal/ports"
	"github.com/olgkv/readmecheck/internal/storage"
)

// RunOptions selects the optional parts of a run and where its outputs go.
type RunOptions struct {
	SkipExternal bool
	HistoryFile  string
	PDFFile      string
	MetricsFile  string
}

// Runner checks one README.
type Runner struct {
	cfg     *config.Config
	opts    RunOptions
	fetcher check.LinkFetcher
	metrics *metrics.PrometheusRecorder
	store   ports.RunStore
}

// New wires the fetcher, metrics and history store from cfg.
func New(cfg *config.Config, opts RunOptions) (*Runner, error) {
	rec := metrics.NewPrometheusRecorder(nil)

	jar := fetch.NewResettableJar()
	fetcher := fetch.New(fetch.NewHTTPClient(jar), jar, fetchOptions(cfg), fetch.WithMetrics(rec))

	r := &Runner{cfg: cfg, opts: opts, fetcher: fetcher, metrics: rec}
	if opts.HistoryFile != "" {
		st := storage.NewFileStorage(storage.NewJSONRepository(opts.HistoryFile))
		if err := st.Load(); err != nil {
			return nil, fmt.Errorf("load storage: %w", err)
		}
		r.store = st
	}
	return r, nil
}

func fetchOptions(cfg *config.Config) fetch.Options {
	return fetch.Options{
		Timeout:              cfg.Timeout,
		UserAgent:            cfg.UserAgent,
		UserAgentExemptHosts: cfg.UserAgentExemptHosts,
		HeadExtensions:       cfg.HeadExtensions,
		OEmbedProviders:      cfg.OEmbedProviders,
		Generic:              fetch.NewRetryPolicy(cfg.RetryCodes, cfg.MaxRetries, cfg.BackoffMin, cfg.BackoffMax),
		Throttle:             fetch.NewRetryPolicy([]int{http.StatusTooManyRequests}, cfg.ThrottleMaxRetries, cfg.BackoffMin, cfg.BackoffMax),
		MaxConcurrency:       cfg.MaxConcurrency,
		RateLimitRPS:         cfg.RateLimitRPS,
		RateLimitBurst:       cfg.RateLimitBurst,
	}
}

func checkOptions(cfg *config.Config) check.Options {
	linkSkip := make(map[string]map[string]bool, len(cfg.LinkSortSkip))
	for header, texts := range cfg.LinkSortSkip {
		linkSkip[header] = config.Set(texts)
	}
	return check.Options{
		HeaderLinkSkip: config.Set(cfg.HeaderLinkSkip),
		HeaderSortSkip: config.Set(cfg.HeaderSortSkip),
		LinkSortSkip:   linkSkip,
		MaxHeaderLevel: cfg.MaxHeaderLevel,
		Ignored:        config.Set(cfg.IgnoredURLs),
		Accepted:       cfg.AcceptedCodes(),
	}
}

// Run parses the README, runs every check and writes the configured outputs.
// Check failures are part of the report; the error is reserved for problems
// that prevented checking.
func (r *Runner) Run(ctx context.Context) (*check.Report, error) {
	start := time.Now()
	report := &check.Report{
		RunID:    uuid.NewString(),
		Document: r.cfg.ReadmePath,
		Started:  start.UTC(),
	}
	log := slog.With(logfields.RunID(report.RunID))

	doc, err := extract.ParseFile(r.cfg.ReadmePath, extract.Options{RawHTML: r.cfg.RawHTML})
	if err != nil {
		return nil, err
	}
	log.Info("Parsed document",
		"path", r.cfg.ReadmePath,
		"headers", len(doc.Headers),
		"links", len(doc.Links),
		"link_lists", len(doc.LinkLists))

	opts := checkOptions(r.cfg)
	report.Results = check.Structural(doc, opts)

	if r.opts.SkipExternal {
		log.Info("Skipping external link check")
	} else {
		external := doc.ExternalLinks()
		log.Info("Checking external links", "count", len(external))
		report.Results = append(report.Results, check.ExternalLinksValid(ctx, r.fetcher, external, opts, r.metrics))
	}
	report.Duration = time.Since(start)

	for _, res := range report.Results {
		r.metrics.SetViolations(res.Name, len(res.Violations))
		log.Debug("Check finished",
			logfields.Check(res.Name),
			"checked", res.Checked,
			"violations", len(res.Violations),
			"warnings", len(res.Warnings))
	}

	if err := r.emit(report); err != nil {
		return report, err
	}

	log.Info("Run completed",
		"passed", report.Passed(),
		"failures", report.Failures(),
		logfields.DurationMS(report.Duration.Milliseconds()))
	return report, nil
}

func (r *Runner) emit(report *check.Report) error {
	if r.store != nil {
		if err := r.store.Append(report); err != nil {
			return err
		}
	}

	if r.opts.PDFFile != "" {
		data, err := pdf.BuildReport(report)
		if err != nil {
			return fmt.Errorf("build pdf report: %w", err)
		}
		if err := os.WriteFile(r.opts.PDFFile, data, 0o644); err != nil {
			return fmt.Errorf("write pdf report: %w", err)
		}
	}

	if r.opts.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.opts.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

// HistorySummary is the tail of a run history plus totals over all of it.
type HistorySummary struct {
	Runs   []*check.Report
	Total  int
	Passed int
}

// History loads the runs recorded in historyFile and returns up to n of them,
// newest first.
func History(historyFile string, n int) (*HistorySummary, error) {
	var st ports.RunStore = storage.NewFileStorage(storage.NewJSONRepository(historyFile))
	if err := st.Load(); err != nil {
		return nil, err
	}
	total, passed := st.Stats()
	return &HistorySummary{Runs: st.Recent(n), Total: total, Passed: passed}, nil
}
