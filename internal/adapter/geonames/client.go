// Package geonames implements domain.TimezoneService using the GeoNames
// timezone web service.
package geonames

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/observability"
)

// Client looks up UTC offsets through the GeoNames timezoneJSON API.
type Client struct {
	username   string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GeoNames timezone client. The username is the
// account the requests are billed against; it is explicit configuration,
// never ambient process state.
func NewClient(username string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		username: username,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "http://api.geonames.org/timezoneJSON",
		metrics: metrics,
		logger:  logger,
	}
}

// LookupUTCOffset returns the site's local standard time offset from UTC
// in hours. It uses rawOffset, the un-daylight-adjusted offset, because
// raw tower timestamps are recorded in local standard time year-round.
func (c *Client) LookupUTCOffset(ctx context.Context, lat, lon float64) (float64, error) {
	params := url.Values{
		"lat":      {fmt.Sprintf("%.6f", lat)},
		"lng":      {fmt.Sprintf("%.6f", lon)},
		"username": {c.username},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.TimezoneAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.TimezoneLookups.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("timezone request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.TimezoneLookups.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("geonames API error: status %d: %s", resp.StatusCode, body)
	}

	var tzResp response
	if err := json.NewDecoder(resp.Body).Decode(&tzResp); err != nil {
		c.metrics.TimezoneLookups.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("decode response: %w", err)
	}

	// GeoNames reports application-level failures in-band with status 200.
	if tzResp.Status != nil {
		c.metrics.TimezoneLookups.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("geonames error %d: %s", tzResp.Status.Value, tzResp.Status.Message)
	}

	c.metrics.TimezoneLookups.WithLabelValues("success").Inc()
	c.logger.Debug("timezone resolved",
		"lat", lat, "lon", lon,
		"timezone", tzResp.TimezoneID,
		"raw_offset", tzResp.RawOffset,
	)
	return tzResp.RawOffset, nil
}

// GeoNames API response types.

type response struct {
	RawOffset  float64      `json:"rawOffset"`
	GMTOffset  float64      `json:"gmtOffset"`
	DSTOffset  float64      `json:"dstOffset"`
	TimezoneID string       `json:"timezoneId"`
	Status     *statusError `json:"status,omitempty"`
}

type statusError struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}
