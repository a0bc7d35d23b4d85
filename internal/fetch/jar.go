package fetch

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// ResettableJar is a cookie jar that can be emptied while requests are in
// flight. Some sites set a tracking cookie that keeps answering 403 once it is
// present, so the retry loop clears it before trying again.
type ResettableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func NewResettableJar() *ResettableJar {
	j := &ResettableJar{}
	j.Clear()
	return j
}

func (j *ResettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

func (j *ResettableJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

// Clear swaps in an empty jar.
func (j *ResettableJar) Clear() {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

func (j *ResettableJar) current() *cookiejar.Jar {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar
}
