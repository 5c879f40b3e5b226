package inspiro

import (
	"net/http"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRate paces outgoing requests to rps per second.
func WithRate(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.pace = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

func WithBreaker(st gobreaker.Settings) Option {
	return func(c *Client) { c.cb = gobreaker.NewCircuitBreaker(st) }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.obs = o }
}
