package inspiro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultBase = "https://inspirobot.me"

// Observer counts requests per endpoint and outcome ("ok", "error", "open").
type Observer interface {
	ObserveRequest(endpoint, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string) {}

type Client struct {
	http    *http.Client
	baseURL string
	pace    *rate.Limiter
	cb      *gobreaker.CircuitBreaker
	obs     Observer

	mu        sync.Mutex
	sessionID string
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBase,
		pace:    rate.NewLimiter(rate.Limit(2), 2),
		obs:     nopObserver{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.cb == nil {
		c.cb = gobreaker.NewCircuitBreaker(DefaultBreaker())
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// DefaultBreaker abre tras 5 fallos seguidos y prueba de nuevo a los 30s.
// Los 4xx no cuentan como fallo del proveedor.
func DefaultBreaker() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "inspiro",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

// get: GET /api con q, pasando por el pacer y el breaker. Devuelve el body.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if err := c.pace.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.do(ctx, q, true)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.obs.ObserveRequest(endpoint, "open")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		c.obs.ObserveRequest(endpoint, "error")
		return nil, err
	}
	c.obs.ObserveRequest(endpoint, "ok")
	return out.([]byte), nil
}

// do maneja 429 con un reintento segun Retry-After (segundos).
func (c *Client) do(ctx context.Context, q url.Values, retry bool) ([]byte, error) {
	u := c.baseURL + "/api"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inspiro http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests && retry {
		if sec, _ := strconv.Atoi(res.Header.Get("Retry-After")); sec > 0 {
			select {
			case <-time.After(time.Duration(sec) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return c.do(ctx, q, false)
		}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return io.ReadAll(io.LimitReader(res.Body, 1<<20))
}
