package check

import (
	"context"
	"log/slog"

	"github.com/olgkv/readmecheck/internal/domain"
	"github.com/olgkv/readmecheck/internal/metrics"
)

// LinkFetcher delivers one result per link, in completion order.
type LinkFetcher interface {
	FetchAll(ctx context.Context, links []domain.Link) <-chan domain.FetchResult
}

// ExternalLinksValid fetches every link and waits for all of them before
// deciding, so one run lists every broken link. Failures of ignored URLs are
// reported as warnings.
func ExternalLinksValid(ctx context.Context, f LinkFetcher, links []domain.Link, opts Options, rec metrics.Recorder) Result {
	if rec == nil {
		rec = metrics.Noop{}
	}

	res := Result{Name: NameExternalLinksValid}
	ignored := 0
	for fr := range f.FetchAll(ctx, links) {
		ok := fr.OK(opts.Accepted)
		switch {
		case ok:
			res.Checked++
			rec.ObserveFetch(metrics.OutcomeOK, fr.Elapsed)
		case opts.Ignored[fr.Link.URL]:
			ignored++
			rec.ObserveFetch(metrics.OutcomeIgnored, fr.Elapsed)
			res.Warnings = append(res.Warnings, Violation{
				Subject: fr.Link.URL,
				Message: "ignored (" + fr.ErrorDescription(opts.Accepted) + ")",
			})
		default:
			rec.ObserveFetch(metrics.OutcomeFailed, fr.Elapsed)
			res.Violations = append(res.Violations, Violation{
				Subject: fr.Link.String(),
				Message: "FAIL (" + fr.ErrorDescription(opts.Accepted) + ")",
			})
		}
	}

	slog.Info("External links checked",
		"ok", res.Checked, "ignored", ignored, "failed", len(res.Violations))
	return res
}
