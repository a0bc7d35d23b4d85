package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olgkv/readmecheck/internal/domain"
	"github.com/olgkv/readmecheck/internal/logfields"
	"github.com/olgkv/readmecheck/internal/metrics"
	"github.com/olgkv/readmecheck/internal/ports"
)

const defaultMaxBodyRead = 1 << 20

type Options struct {
	// Timeout bounds every single attempt, not the whole retry sequence.
	Timeout time.Duration

	UserAgent            string
	UserAgentExemptHosts []string

	// HeadExtensions are path suffixes fetched with HEAD only.
	HeadExtensions []string

	// OEmbedProviders maps a host to its oEmbed endpoint. Some video hosts
	// answer 200 for deleted videos but 404 from the oEmbed API.
	OEmbedProviders map[string]string

	Generic  RetryPolicy
	Throttle RetryPolicy

	// MaxConcurrency caps in-flight links; 0 means one goroutine per link.
	MaxConcurrency int
	RateLimitRPS   float64
	RateLimitBurst int

	MaxBodyRead int64
}

type Option func(*Fetcher)

func WithJitter(j Jitter) Option {
	return func(f *Fetcher) { f.jitter = j }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// Fetcher checks external links with one shared client.
type Fetcher struct {
	client  ports.HTTPClient
	cookies ports.CookieClearer
	opts    Options
	limiter *rate.Limiter
	jitter  Jitter
	metrics metrics.Recorder
}

func New(client ports.HTTPClient, cookies ports.CookieClearer, opts Options, options ...Option) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.MaxBodyRead <= 0 {
		opts.MaxBodyRead = defaultMaxBodyRead
	}
	f := &Fetcher{
		client:  client,
		cookies: cookies,
		opts:    opts,
		jitter:  UniformJitter,
		metrics: metrics.Noop{},
	}
	if opts.RateLimitRPS > 0 && opts.RateLimitBurst > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)
	}
	for _, o := range options {
		o(f)
	}
	return f
}

// NewHTTPClient returns a client sharing jar across every request. Timeouts
// come from the per-attempt context.
func NewHTTPClient(jar http.CookieJar) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport, Jar: jar}
}

// FetchAll fetches every link concurrently. Results are sent in completion
// order and the channel is closed once all links are done. A failing link
// never cancels the others.
func (f *Fetcher) FetchAll(ctx context.Context, links []domain.Link) <-chan domain.FetchResult {
	out := make(chan domain.FetchResult, len(links))

	var sem chan struct{}
	if f.opts.MaxConcurrency > 0 {
		sem = make(chan struct{}, f.opts.MaxConcurrency)
	}

	var wg sync.WaitGroup
	for _, link := range links {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					out <- domain.FetchResult{Link: link, Err: ctx.Err()}
					return
				}
			}
			out <- f.Fetch(ctx, link)
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

type request struct {
	method    string
	url       string
	host      string
	policy    *RetryPolicy
	userAgent bool
}

// Fetch retrieves a single link using the method its URL calls for.
func (f *Fetcher) Fetch(ctx context.Context, link domain.Link) domain.FetchResult {
	start := time.Now()
	req := f.plan(link)

	resp, attempts, err := f.run(ctx, req)
	return domain.FetchResult{
		Link:     link,
		Method:   req.method,
		Response: resp,
		Err:      err,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}
}

func (f *Fetcher) plan(link domain.Link) request {
	req := request{method: http.MethodGet, url: link.URL, userAgent: true}

	u, err := url.Parse(link.URL)
	if err != nil {
		return req
	}
	req.host = strings.ToLower(u.Hostname())
	req.userAgent = !hostIn(req.host, f.opts.UserAgentExemptHosts)

	path := strings.ToLower(u.Path)
	for _, ext := range f.opts.HeadExtensions {
		if strings.HasSuffix(path, ext) {
			req.method = http.MethodHead
			return req
		}
	}

	for host, endpoint := range f.opts.OEmbedProviders {
		if hostIn(req.host, []string{host}) {
			req.url = endpoint + "?format=json&url=" + url.QueryEscape(link.URL)
			req.policy = &f.opts.Throttle
			return req
		}
	}

	req.policy = &f.opts.Generic
	return req
}

// run performs req, retrying on the policy's status codes. It returns the
// number of requests actually sent.
func (f *Fetcher) run(ctx context.Context, req request) (*domain.Response, int, error) {
	maxRetries := 0
	if req.policy != nil {
		maxRetries = req.policy.MaxRetries
	}

	attempts := 0
	lastStatus := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, attempts, fmt.Errorf("rate limit: %w", err)
			}
		}

		resp, err := f.attempt(ctx, req, attempt)
		attempts++
		if err != nil {
			return nil, attempts, err
		}
		if req.policy == nil || !req.policy.Codes[resp.StatusCode] {
			return resp, attempts, nil
		}

		lastStatus = resp.StatusCode
		if attempt == maxRetries {
			break
		}

		f.metrics.IncRetry(req.host, resp.StatusCode)
		if f.cookies != nil {
			f.cookies.Clear()
		}
		if err := sleep(ctx, f.jitter(req.policy.BackoffMin, req.policy.BackoffMax)); err != nil {
			return nil, attempts, err
		}
	}

	f.metrics.IncRetryExhausted(req.host)
	return nil, attempts, &RetriesExhaustedError{URL: req.url, MaxRetries: maxRetries, Status: lastStatus}
}

func (f *Fetcher) attempt(ctx context.Context, req request, attempt int) (*domain.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if req.userAgent && f.opts.UserAgent != "" {
		httpReq.Header.Set("User-Agent", f.opts.UserAgent)
	}

	f.metrics.IncFetchAttempt(req.method)
	resp, err := f.client.Do(httpReq)
	if err != nil {
		slog.Warn("Error opening link",
			logfields.Method(req.method), logfields.URL(req.url), logfields.Attempt(attempt), logfields.Error(err))
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Drain a little body on GET so the connection can be reused.
	if req.method == http.MethodGet {
		_, _ = io.CopyN(io.Discard, resp.Body, f.opts.MaxBodyRead)
	}

	out := &domain.Response{StatusCode: resp.StatusCode, Reason: reason(resp)}
	slog.Info("Opening link",
		logfields.Method(req.method), logfields.URL(req.url), logfields.Attempt(attempt),
		logfields.Status(out.StatusCode), logfields.Reason(out.Reason))
	return out, nil
}

func reason(resp *http.Response) string {
	r := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if r == "" {
		return http.StatusText(resp.StatusCode)
	}
	return r
}

// hostIn reports whether host is one of hosts or a subdomain of one.
func hostIn(host string, hosts []string) bool {
	for _, h := range hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
