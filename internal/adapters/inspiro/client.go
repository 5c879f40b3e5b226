// Package inspiro talks to an InspiroBot style generator: single image
// quotes and "mindfulness" flows of short text fragments.
package inspiro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Quote genera una imagen y devuelve su URL.
func (c *Client) Quote(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("generate", "true")
	b, err := c.get(ctx, "quote", q)
	if err != nil {
		return "", err
	}
	u := strings.TrimSpace(string(b))
	if p, err := url.Parse(u); err != nil || p.Scheme == "" || p.Host == "" {
		return "", fmt.Errorf("%w: quote is not a url: %q", ErrUnavailable, truncate(u, 80))
	}
	return u, nil
}

// Flow devuelve los textos de un flow en orden, sin transiciones ni pausas.
func (c *Client) Flow(ctx context.Context) ([]string, error) {
	sid, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("generateFlow", "1")
	q.Set("sessionID", sid)
	b, err := c.get(ctx, "flow", q)
	if err != nil {
		return nil, err
	}

	var dto flowDTO
	if err := json.Unmarshal(b, &dto); err != nil {
		c.resetSession()
		return nil, fmt.Errorf("%w: decode flow: %v", ErrUnavailable, err)
	}
	var out []string
	for _, it := range dto.Data {
		if it.Type != "quote" {
			continue
		}
		if t := strings.TrimSpace(it.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty flow", ErrUnavailable)
	}
	return out, nil
}

// session: el id se pide una vez y se reusa hasta que falle un flow.
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	sid := c.sessionID
	c.mu.Unlock()
	if sid != "" {
		return sid, nil
	}

	q := url.Values{}
	q.Set("getSessionID", "1")
	b, err := c.get(ctx, "session", q)
	if err != nil {
		return "", err
	}
	sid = strings.TrimSpace(string(b))
	if sid == "" {
		return "", fmt.Errorf("%w: empty session id", ErrUnavailable)
	}

	c.mu.Lock()
	c.sessionID = sid
	c.mu.Unlock()
	return sid, nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
