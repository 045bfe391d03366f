package ttb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxResponseBytes = 32 << 20
	maxErrorBody     = 4 << 10
)

// Outcome labels reported to an Observer.
const (
	OutcomeSuccess     = "success"
	OutcomeHTTPError   = "http_error"
	OutcomeTransport   = "transport_error"
	OutcomeDecodeError = "decode_error"
)

// Observer receives one callback per upstream request.
type Observer interface {
	ObserveUpstream(outcome string, duration time.Duration)
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("timetable request failed (%d): %s", e.StatusCode, e.Body)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Observer   Observer
}

// Client queries the timetable endpoint. It performs exactly one request per
// Search call with no retry.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// NewClient builds a Client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		http:     httpClient,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
}

// Search issues one query and returns the raw courses of the first page.
func (c *Client) Search(ctx context.Context, q Query) ([]RawCourse, error) {
	payload, err := json.Marshal(buildRequestBody(q))
	if err != nil {
		return nil, fmt.Errorf("encode timetable query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build timetable request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(OutcomeTransport, start)
		return nil, fmt.Errorf("timetable request for %q: %w", q.Code, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(OutcomeHTTPError, start)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		c.observe(OutcomeDecodeError, start)
		return nil, fmt.Errorf("decode timetable response for %q: %w", q.Code, err)
	}
	c.observe(OutcomeSuccess, start)

	courses := decoded.courses()
	c.logger.Debug("timetable search",
		zap.String("code", q.Code),
		zap.Strings("sessions", q.Sessions),
		zap.Int("courses", len(courses)),
		zap.Duration("latency", time.Since(start)),
	)
	return courses, nil
}

func (c *Client) observe(outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(outcome, time.Since(start))
	}
}
