package ports

import "net/http"

// HTTPClient abstracts Do method used by the fetcher for outgoing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CookieClearer drops every cookie collected so far by the shared client.
type CookieClearer interface {
	Clear()
}
