package bls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

// BLS response statuses.
const (
	statusSucceeded     = "REQUEST_SUCCEEDED"
	statusNotProcessed  = "REQUEST_NOT_PROCESSED"
	statusInvalidParams = "REQUEST_FAILED_INVALID_PARAMETERS"
)

// Client implements domain.SeriesQuerier using the BLS public data API v2.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a BLS API client. apiKey may be empty, in which case the
// anonymous (lower) daily limits apply.
func NewClient(baseURL, apiKey, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// QueryBatch posts one multi-series request and returns one result per
// series in the response.
func (c *Client) QueryBatch(ctx context.Context, batch domain.Batch) ([]domain.QueryResult, error) {
	body, err := json.Marshal(request{
		SeriesID:        batch.SeriesIDs,
		StartYear:       strconv.Itoa(batch.Years.Start),
		EndYear:         strconv.Itoa(batch.Years.End),
		RegistrationKey: c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	results, err := c.doRequest(ctx, body)
	c.metrics.APIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.metrics.APIRequests.WithLabelValues(string(apiErr.Class)).Inc()
		}
		return nil, err
	}
	c.metrics.APIRequests.WithLabelValues("success").Inc()
	return results, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]domain.QueryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Class: ClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Messages:   []string{string(bytes.TrimSpace(msg))},
		}
	}

	var blsResp response
	if err := json.NewDecoder(resp.Body).Decode(&blsResp); err != nil {
		return nil, &APIError{Class: ClassServer, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	switch blsResp.Status {
	case statusSucceeded:
	case statusNotProcessed:
		return nil, &APIError{Class: ClassQuota, StatusCode: resp.StatusCode, Status: blsResp.Status, Messages: blsResp.Message, Err: domain.ErrQuotaExceeded}
	case statusInvalidParams:
		return nil, &APIError{Class: ClassClient, StatusCode: resp.StatusCode, Status: blsResp.Status, Messages: blsResp.Message}
	default:
		return nil, &APIError{Class: ClassServer, StatusCode: resp.StatusCode, Status: blsResp.Status, Messages: blsResp.Message}
	}

	// "No Data Available for Series ..." messages accompany series the
	// survey has no estimate for. They are not errors.
	for _, m := range blsResp.Message {
		c.logger.Debug("bls response message", "message", m)
	}

	results := make([]domain.QueryResult, 0, len(blsResp.Results.Series))
	for _, s := range blsResp.Results.Series {
		results = append(results, s.toQueryResult())
	}
	return results, nil
}

// BLS API request and response types.

type request struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type response struct {
	Status       string   `json:"status"`
	ResponseTime int      `json:"responseTime"`
	Message      []string `json:"message"`
	Results      struct {
		Series []series `json:"series"`
	} `json:"Results"`
}

type series struct {
	SeriesID string      `json:"seriesID"`
	Data     []dataPoint `json:"data"`
}

type dataPoint struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"periodName"`
	Latest     string `json:"latest"`
	Value      string `json:"value"`
}

func (s series) toQueryResult() domain.QueryResult {
	r := domain.QueryResult{SeriesID: s.SeriesID}
	for _, d := range s.Data {
		r.Observations = append(r.Observations, domain.Observation{
			Year:       d.Year,
			Period:     d.Period,
			PeriodName: d.PeriodName,
			Value:      d.Value,
			Latest:     d.Latest == "true",
		})
	}
	return r
}
