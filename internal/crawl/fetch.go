package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Session carries the origin cookies granted by the challenge handshake.
// Collectors are cloned per request so response callbacks never accumulate;
// cookies are re-applied on every clone.
type Session struct {
	base    *colly.Collector
	origin  string
	cookies []*http.Cookie
	timeout time.Duration
}

func (c *Crawler) newSession(origin string) *Session {
	base := colly.NewCollector(
		colly.UserAgent(c.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	base.IgnoreRobotsTxt = true
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Session{
		base:    base,
		origin:  origin,
		timeout: timeout,
	}
}

// get fetches url and returns the response body. The visit runs in its own
// goroutine so a caller-level context cancellation aborts the wait.
func (s *Session) get(ctx context.Context, url string) ([]byte, error) {
	collector, body, fetchErr := s.prepare()

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()
	return s.await(ctx, done, body, fetchErr)
}

// postJSON posts a JSON payload and returns the response body.
func (s *Session) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	collector, body, fetchErr := s.prepare()
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Content-Type", "application/json")
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.PostRaw(url, raw)
	}()
	return s.await(ctx, done, body, fetchErr)
}

func (s *Session) prepare() (*colly.Collector, *[]byte, *error) {
	collector := s.base.Clone()
	collector.SetRequestTimeout(s.timeout)
	if len(s.cookies) > 0 {
		// A failed cookie set only means the request runs unauthorized.
		_ = collector.SetCookies(s.origin, s.cookies)
	}

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})
	return collector, &body, &fetchErr
}

func (s *Session) await(ctx context.Context, done chan error, body *[]byte, fetchErr *error) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return nil, fmt.Errorf("response failed: %w", *fetchErr)
		}
		return *body, nil
	}
}
