package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olgkv/readmecheck/internal/domain"
)

type recordedRequest struct {
	method    string
	url       string
	userAgent string
}

type httpClientMock struct {
	mu       sync.Mutex
	calls    []recordedRequest
	statuses []int // consumed in order; the last one repeats
	err      error
}

func (m *httpClientMock) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedRequest{
		method:    req.Method,
		url:       req.URL.String(),
		userAgent: req.Header.Get("User-Agent"),
	})
	if m.err != nil {
		return nil, m.err
	}
	status := http.StatusOK
	if len(m.statuses) > 0 {
		status = m.statuses[0]
		if len(m.statuses) > 1 {
			m.statuses = m.statuses[1:]
		}
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("ok")),
	}, nil
}

type cookieClearerMock struct{ clears atomic.Int32 }

func (c *cookieClearerMock) Clear() { c.clears.Add(1) }

func testOptions() Options {
	return Options{
		Timeout:              time.Second,
		UserAgent:            "test-agent",
		UserAgentExemptHosts: []string{"plain.example"},
		HeadExtensions:       []string{".png", ".pdf"},
		OEmbedProviders:      map[string]string{"videos.example": "https://videos.example/oembed"},
		Generic:              NewRetryPolicy([]int{403, 503}, 3, time.Second, 5*time.Second),
		Throttle:             NewRetryPolicy([]int{429}, 10, time.Second, 5*time.Second),
	}
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	original := sleep
	t.Cleanup(func() { sleep = original })
	var slept []time.Duration
	var mu sync.Mutex
	sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
		return nil
	}
	return &slept
}

func fixedJitter(low, high time.Duration) time.Duration { return low }

func TestFetch_RetryTerminatesAfterMaxRetries(t *testing.T) {
	slept := stubSleep(t)
	client := &httpClientMock{statuses: []int{http.StatusServiceUnavailable}}
	jar := &cookieClearerMock{}
	f := New(client, jar, testOptions(), WithJitter(fixedJitter))

	res := f.Fetch(context.Background(), domain.Link{URL: "https://busy.example/page"})

	if len(client.calls) != 4 {
		t.Fatalf("expected max_retries+1 = 4 attempts, got %d", len(client.calls))
	}
	if res.Attempts != 4 {
		t.Fatalf("expected Attempts 4, got %d", res.Attempts)
	}
	var exhausted *RetriesExhaustedError
	if !errors.As(res.Err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %v", res.Err)
	}
	if exhausted.Status != http.StatusServiceUnavailable || exhausted.MaxRetries != 3 {
		t.Fatalf("unexpected error details: %+v", exhausted)
	}
	if !domain.IsTimeout(res.Err) {
		t.Fatalf("exhausted retries must count as a timeout")
	}
	if len(*slept) != 3 {
		t.Fatalf("expected 3 backoff sleeps, got %d", len(*slept))
	}
	if (*slept)[0] != time.Second {
		t.Fatalf("expected jitter-provided backoff, got %v", (*slept)[0])
	}
	if jar.clears.Load() != 3 {
		t.Fatalf("expected cookies cleared before each retry, got %d", jar.clears.Load())
	}
}

func TestFetch_RetrySucceedsAfterThrottling(t *testing.T) {
	stubSleep(t)
	client := &httpClientMock{statuses: []int{403, 403, 200}}
	f := New(client, &cookieClearerMock{}, testOptions(), WithJitter(fixedJitter))

	res := f.Fetch(context.Background(), domain.Link{URL: "https://flaky.example"})

	if res.Err != nil || res.Response == nil || res.Response.StatusCode != http.StatusOK {
		t.Fatalf("expected eventual 200, got %+v", res)
	}
	if res.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", res.Attempts)
	}
	if res.Response.Reason != "OK" {
		t.Fatalf("expected reason OK, got %q", res.Response.Reason)
	}
}

func TestFetch_NonRetryableStatusReturnsImmediately(t *testing.T) {
	stubSleep(t)
	client := &httpClientMock{statuses: []int{http.StatusNotFound}}
	f := New(client, &cookieClearerMock{}, testOptions())

	res := f.Fetch(context.Background(), domain.Link{URL: "https://gone.example"})
	if len(client.calls) != 1 || res.Response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected single 404, got %d calls %+v", len(client.calls), res.Response)
	}
}

func TestFetch_TransportErrorIsNotRetried(t *testing.T) {
	slept := stubSleep(t)
	client := &httpClientMock{err: errors.New("connection refused")}
	f := New(client, &cookieClearerMock{}, testOptions())

	res := f.Fetch(context.Background(), domain.Link{URL: "https://down.example"})
	if len(client.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(client.calls))
	}
	if len(*slept) != 0 {
		t.Fatalf("transport errors must not back off")
	}
	if got := res.ErrorDescription(map[int]bool{200: true}); got != "Exception: connection refused" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestFetch_MethodSelection(t *testing.T) {
	stubSleep(t)

	tests := []struct {
		name       string
		link       string
		wantMethod string
		wantURL    string
		wantUA     string
	}{
		{"png uses HEAD", "https://img.example/logo.png", http.MethodHead, "https://img.example/logo.png", "test-agent"},
		{"pdf uses HEAD", "https://docs.example/paper.PDF", http.MethodHead, "https://docs.example/paper.PDF", "test-agent"},
		{"page uses GET", "https://site.example/post", http.MethodGet, "https://site.example/post", "test-agent"},
		{
			"video host uses oEmbed", "https://www.videos.example/watch?v=abc", http.MethodGet,
			"https://videos.example/oembed?format=json&url=" + url.QueryEscape("https://www.videos.example/watch?v=abc"),
			"test-agent",
		},
		{"exempt host has no override", "https://plain.example/status/1", http.MethodGet, "https://plain.example/status/1", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &httpClientMock{}
			f := New(client, &cookieClearerMock{}, testOptions())

			res := f.Fetch(context.Background(), domain.Link{URL: tc.link})
			if res.Method != tc.wantMethod {
				t.Fatalf("method = %s, want %s", res.Method, tc.wantMethod)
			}
			if len(client.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(client.calls))
			}
			call := client.calls[0]
			if call.method != tc.wantMethod || call.url != tc.wantURL {
				t.Fatalf("request = %s %s, want %s %s", call.method, call.url, tc.wantMethod, tc.wantURL)
			}
			if call.userAgent != tc.wantUA {
				t.Fatalf("User-Agent = %q, want %q", call.userAgent, tc.wantUA)
			}
		})
	}
}

func TestFetch_HeadIsNotRetried(t *testing.T) {
	stubSleep(t)
	client := &httpClientMock{statuses: []int{http.StatusServiceUnavailable}}
	f := New(client, &cookieClearerMock{}, testOptions())

	res := f.Fetch(context.Background(), domain.Link{URL: "https://img.example/logo.png"})
	if len(client.calls) != 1 || res.Response.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected a single HEAD attempt, got %d", len(client.calls))
	}
}

func TestFetch_OEmbedUsesThrottlePolicy(t *testing.T) {
	stubSleep(t)
	client := &httpClientMock{statuses: []int{429, 429, 404}}
	f := New(client, &cookieClearerMock{}, testOptions(), WithJitter(fixedJitter))

	res := f.Fetch(context.Background(), domain.Link{URL: "https://videos.example/deleted"})
	if len(client.calls) != 3 {
		t.Fatalf("expected 429s to be retried, got %d calls", len(client.calls))
	}
	if res.Response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected oEmbed 404 to surface, got %d", res.Response.StatusCode)
	}
}

func TestFetch_AttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	opts := testOptions()
	opts.Timeout = 50 * time.Millisecond
	f := New(srv.Client(), NewResettableJar(), opts)

	res := f.Fetch(context.Background(), domain.Link{URL: srv.URL + "/slow"})
	if got := res.ErrorDescription(map[int]bool{200: true}); got != "Timed out" {
		t.Fatalf("expected Timed out, got %q (%v)", got, res.Err)
	}
}

func TestFetchAll_CompletionOrder(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	f := New(NewHTTPClient(NewResettableJar()), NewResettableJar(), testOptions())
	results := f.FetchAll(context.Background(), []domain.Link{
		{URL: srv.URL + "/slow"},
		{URL: srv.URL + "/fast"},
	})

	first := <-results
	if !strings.HasSuffix(first.Link.URL, "/fast") {
		t.Fatalf("expected fast link first, got %s", first.Link.URL)
	}
	close(release)

	second := <-results
	if !strings.HasSuffix(second.Link.URL, "/slow") {
		t.Fatalf("expected slow link second, got %s", second.Link.URL)
	}
	if _, ok := <-results; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestFetchAll_RespectsConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	opts := testOptions()
	opts.MaxConcurrency = 2
	f := New(srv.Client(), NewResettableJar(), opts)

	var links []domain.Link
	for _, p := range []string{"/a", "/b", "/c", "/d", "/e", "/f"} {
		links = append(links, domain.Link{URL: srv.URL + p})
	}

	count := 0
	for res := range f.FetchAll(context.Background(), links) {
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		count++
	}
	if count != len(links) {
		t.Fatalf("expected %d results, got %d", len(links), count)
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent requests, saw %d", peak.Load())
	}
}

func TestResettableJar_Clear(t *testing.T) {
	jar := NewResettableJar()
	u, _ := url.Parse("https://tracker.example.com/")
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "locked"}})
	if len(jar.Cookies(u)) != 1 {
		t.Fatalf("expected cookie to be stored")
	}

	jar.Clear()
	if len(jar.Cookies(u)) != 0 {
		t.Fatalf("expected jar to be empty after Clear")
	}
}

func TestUniformJitter(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := UniformJitter(time.Second, 5*time.Second)
		if d < time.Second || d > 5*time.Second {
			t.Fatalf("jitter %v out of range", d)
		}
	}
	if d := UniformJitter(time.Second, time.Second); d != time.Second {
		t.Fatalf("degenerate range should return low, got %v", d)
	}
}
