// Package fetch retrieves raw JSON documents from HTTP endpoints or local
// files, with retry for transient upstream failures.
package fetch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"go-transform-pipeline/internal/transform"
	"go-transform-pipeline/pkg/utils"

	"github.com/rs/zerolog/log"
)

// RetryConfig defines the backoff policy for transient fetch failures.
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
	Jitter            bool          `json:"jitter"`
}

// DefaultRetryConfig mirrors sensible upstream-API defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      1 * time.Second,
	MaxDelay:          30 * time.Second,
	BackoffMultiplier: 2.0,
	Jitter:            true,
}

// Fetcher retrieves and decodes JSON documents.
type Fetcher struct {
	Client *http.Client
	Retry  RetryConfig
}

// New creates a fetcher with the given request timeout and retry policy.
func New(timeout time.Duration, retry RetryConfig) *Fetcher {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Fetcher{
		Client: &http.Client{Timeout: timeout},
		Retry:  retry,
	}
}

// transientError marks a failure worth retrying: network errors and
// rate-limit / server-side HTTP statuses. Client errors and malformed
// response bodies are permanent.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Fetch retrieves source and decodes it order-preserving. A source starting
// with http:// or https:// is fetched over the network with retry; anything
// else is read as a local file path (no retry, local reads do not flake).
func (f *Fetcher) Fetch(ctx context.Context, source, authHeader string) (transform.Value, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.fetchHTTP(ctx, source, authHeader)
	}
	return fetchFile(source)
}

func fetchFile(path string) (transform.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return parseCSV(bytes.NewReader(data))
	}
	doc, err := transform.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document from %s: %w", path, err)
	}
	return doc, nil
}

// parseCSV reads a CSV document into an array of rows so downstream steps
// see the same shape as a JSON record set. Cell values get typed the same
// way headers-with-numbers always have: int, float, bool, else string.
func parseCSV(r io.Reader) (transform.Value, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	rows := []transform.Value{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}
		row := transform.NewRow()
		for i, h := range headers {
			if i < len(record) {
				row.Set(h, csvValue(record[i]))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// csvValue maps ParseValue output onto the document value model, where all
// numbers are float64.
func csvValue(s string) transform.Value {
	switch v := utils.ParseValue(s).(type) {
	case int:
		return float64(v)
	default:
		return v
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url, authHeader string) (transform.Value, error) {
	var lastErr error
	for attempt := 1; attempt <= f.Retry.MaxAttempts; attempt++ {
		doc, err := f.fetchOnce(ctx, url, authHeader)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		var transient *transientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if attempt == f.Retry.MaxAttempts {
			break
		}

		delay := f.backoff(attempt)
		log.Warn().Str("url", url).Int("attempt", attempt).Dur("delay", delay).
			Err(err).Msg("fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", f.Retry.MaxAttempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, authHeader string) (transform.Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch URL: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &transientError{fmt.Errorf("failed to GET document: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, &transientError{fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{fmt.Errorf("failed to read response body: %w", err)}
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/csv") {
		return parseCSV(bytes.NewReader(body))
	}
	doc, err := transform.ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document from %s: %w", url, err)
	}
	return doc, nil
}

// backoff computes the delay before the next attempt: exponential growth
// capped at MaxDelay, with up to 10% jitter.
func (f *Fetcher) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(f.Retry.InitialDelay) *
		math.Pow(f.Retry.BackoffMultiplier, float64(attempt-1)))
	if delay > f.Retry.MaxDelay {
		delay = f.Retry.MaxDelay
	}
	if f.Retry.Jitter {
		delay += time.Duration(rand.Float64() * 0.1 * float64(delay))
	}
	return delay
}
