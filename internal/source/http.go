package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	userAgent           = "SkillPulseIngest/1.0"
	maxResponseBytes    = 5 << 20
	defaultTimeout      = 30 * time.Second
	defaultRetries      = 3
	defaultRetryBackoff = time.Second
)

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Transient() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

type requester struct {
	source    string
	client    *http.Client
	retries   int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *log.Logger
}

func newRequester(name string, s Settings) requester {
	client := s.HTTPClient
	if client == nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	retries := s.RetryAttempts
	if retries < 0 {
		retries = 0
	}
	delay := s.RetryBaseDelay
	if delay <= 0 {
		delay = defaultRetryBackoff
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return requester{
		source:    name,
		client:    client,
		retries:   retries,
		baseDelay: delay,
		sleep:     sleep,
		logger:    s.logger(),
	}
}

// do retries transport errors and transient statuses with delay
// baseDelay*2^attempt. Anything else is returned on the first attempt.
func (r requester) do(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		b, err := r.once(ctx, method, url, body, header)
		if err == nil {
			return b, nil
		}
		lastErr = err
		if !r.transient(ctx, err) || attempt == r.retries {
			break
		}

		delay := r.baseDelay * time.Duration(1<<attempt)
		r.logger.Printf("source=%s level=warn status=retry attempt=%d delay=%s err=%v", r.source, attempt+1, delay, err)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (r requester) once(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	return readAllLimit(resp.Body, maxResponseBytes)
}

func (r requester) transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	// Remaining errors come from the transport: timeouts, refused or reset
	// connections, DNS failures.
	return true
}

func readAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: max + 1}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("response too large")
	}
	return b, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
