package metrics

import "time"

// Recorder receives fetch and check observations. Implementations must be
// safe for concurrent use.
type Recorder interface {
	IncFetchAttempt(method string)
	IncRetry(host string, status int)
	IncRetryExhausted(host string)
	ObserveFetch(outcome Outcome, d time.Duration)
	SetViolations(check string, n int)
}

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeIgnored Outcome = "ignored"
)

// Noop discards everything.
type Noop struct{}

func (Noop) IncFetchAttempt(string)              {}
func (Noop) IncRetry(string, int)                {}
func (Noop) IncRetryExhausted(string)            {}
func (Noop) ObserveFetch(Outcome, time.Duration) {}
func (Noop) SetViolations(string, int)           {}
