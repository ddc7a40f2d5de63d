package youtube

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// UserAgent is sent with every API request.
const UserAgent = "ytq/1.0"

// newBaseTransport returns a pooled transport sized for one short-lived
// command talking to a single host.
func newBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		MaxConnsPerHost:     4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// apiTransport adds the API key and user agent to every request and paces
// requests with a token bucket.
type apiTransport struct {
	key     string
	limiter *rate.Limiter
	base    http.RoundTripper
}

func newAPITransport(key string, rps float64, base http.RoundTripper) *apiTransport {
	return &apiTransport{
		key:     key,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		base:    base,
	}
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	q := clone.URL.Query()
	q.Set("key", t.key)
	clone.URL.RawQuery = q.Encode()
	if clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", UserAgent)
	}
	return t.base.RoundTrip(clone)
}
