package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Response struct {
	StatusCode int    `json:"status_code"`
	Reason     string `json:"reason"`
}

// FetchResult is the outcome of fetching one external link.
type FetchResult struct {
	Link     Link
	Method   string
	Response *Response
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// OK reports whether a response with an accepted status arrived without error.
func (r FetchResult) OK(accepted map[int]bool) bool {
	return r.Response != nil && r.Err == nil && accepted[r.Response.StatusCode]
}

// ErrorDescription describes why the fetch failed, or returns "" when it did not.
func (r FetchResult) ErrorDescription(accepted map[int]bool) string {
	switch {
	case r.OK(accepted):
		return ""
	case r.Response != nil:
		return fmt.Sprintf("Status code: %d", r.Response.StatusCode)
	case r.Err != nil:
		var exhausted interface {
			Retries() int
			LastStatus() int
		}
		if errors.As(r.Err, &exhausted) {
			return fmt.Sprintf("Timed out after %d retries (last status %d)", exhausted.Retries(), exhausted.LastStatus())
		}
		if IsTimeout(r.Err) {
			return "Timed out"
		}
		return fmt.Sprintf("Exception: %v", r.Err)
	default:
		return "Exception: no response"
	}
}

// IsTimeout reports whether err is a deadline or any error claiming Timeout().
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
