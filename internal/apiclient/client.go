// Package apiclient posts analysis results to the downstream reporting API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tix-net/condenser/internal/analyzer"
)

// ErrConfiguration is returned by New when the client is constructed
// without credentials. The client is built once at startup and
// cmd/condenser exits on this error, so no message is consumed or requeued
// because of it.
type ErrConfiguration struct {
	Reason string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("apiclient: configuration error: %s", e.Reason)
}

// ErrTransient is returned for any non-2xx response or transport-level
// failure; the caller maps it to a reject-with-requeue.
type ErrTransient struct {
	StatusCode int
	Err        error
}

func (e *ErrTransient) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apiclient: transient failure: %v", e.Err)
	}
	return fmt.Sprintf("apiclient: unexpected status %d", e.StatusCode)
}

func (e *ErrTransient) Unwrap() error { return e.Err }

// Config holds the client's connection details.
type Config struct {
	Host     string
	Port     int
	SSL      bool
	User     string
	Password string
	Timeout  time.Duration
}

// Client posts analysis results over HTTP Basic Auth. It deliberately uses
// the standard net/http.Client rather than the corpus's
// hashicorp/go-retryablehttp: that client's own retry loop would double up
// with the queue adapter's requeue-is-the-retry contract, silently retrying
// before the queue ever observes a failure.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New validates cfg and builds a Client, or returns ErrConfiguration if
// credentials are missing.
func New(cfg Config) (*Client, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, &ErrConfiguration{Reason: "missing API credentials"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type reportBody struct {
	Timestamp        int64   `json:"timestamp"`
	UpUsage          float64 `json:"upUsage"`
	UpQuality        float64 `json:"upQuality"`
	DownUsage        float64 `json:"downUsage"`
	DownQuality      float64 `json:"downQuality"`
	HurstUpRS        float64 `json:"hurstUpRs"`
	HurstUpWavelet   float64 `json:"hurstUpWavelet"`
	HurstDownRS      float64 `json:"hurstDownRs"`
	HurstDownWavelet float64 `json:"hurstDownWavelet"`
	IPAddress        string  `json:"ipAddress"`
}

// Publish POSTs result for (userID, installationID) to
// /api/user/{userId}/installation/{installationId}/report.
func (c *Client) Publish(ctx context.Context, userID, installationID int64, ip string, result analyzer.AnalysisResult) error {
	body := reportBody{
		Timestamp:        result.Timestamp,
		UpUsage:          result.Upstream.Usage,
		UpQuality:        result.Upstream.Quality,
		DownUsage:        result.Downstream.Usage,
		DownQuality:      result.Downstream.Quality,
		HurstUpRS:        result.Upstream.Hurst.RS,
		HurstUpWavelet:   result.Upstream.Hurst.Wavelet,
		HurstDownRS:      result.Downstream.Hurst.RS,
		HurstDownWavelet: result.Downstream.Hurst.Wavelet,
		IPAddress:        ip,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("apiclient: marshaling body: %w", err)
	}

	scheme := "http"
	if c.cfg.SSL {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s:%d/api/user/%d/installation/%d/report", scheme, c.cfg.Host, c.cfg.Port, userID, installationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &ErrTransient{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ErrTransient{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return &ErrTransient{StatusCode: resp.StatusCode}
}
