package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
)

const (
	reportDownloadsPath = "api/v2/nm-report/downloads"
	reportFilePath      = "api/v2/nm-report/downloads/file"
	advertsPath         = "adv/v1/promotion/adverts"
	fullStatsPath       = "adv/v2/fullstats"

	defaultTimeout           = 30 * time.Second
	errorBodyReadLimit       = 2048
	maxPayloadBytes    int64 = 256 << 20
)

var (
	errTokenRequired   = errors.New("marketplace api token is required")
	errBaseURLRequired = errors.New("marketplace base url is required")
)

// Client talks to the marketplace analytics and advertising APIs.
type Client struct {
	httpClient   *http.Client
	reportsURL   string
	campaignsURL string
	token        string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the client. reportsURL serves report downloads and
// campaignsURL serves the advertising endpoints; both may be the same host.
func NewClient(reportsURL, campaignsURL, token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}
	reportsURL = strings.TrimSpace(reportsURL)
	campaignsURL = strings.TrimSpace(campaignsURL)
	if reportsURL == "" || campaignsURL == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		reportsURL:   reportsURL,
		campaignsURL: campaignsURL,
		token:        trimmedToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

// ReportDownload is one generated report available for download.
type ReportDownload struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Advert is a promotion campaign as returned by the adverts listing.
type Advert struct {
	AdvertID ID  `json:"advertId" validate:"required"`
	Status   int `json:"status"`
	Type     int `json:"type"`
}

// FullStatsRequest asks for statistics of one campaign on the given dates.
type FullStatsRequest struct {
	ID    ID       `json:"id"`
	Dates []string `json:"dates"`
}

// FullStats holds the aggregate counters of one campaign.
type FullStats struct {
	AdvertID ID      `json:"advertId" validate:"required"`
	Views    int64   `json:"views"`
	Clicks   int64   `json:"clicks"`
	Atbs     int64   `json:"atbs"`
	Orders   int64   `json:"orders"`
	Sum      float64 `json:"sum"`
	SumPrice float64 `json:"sum_price"`
}

// ListReportDownloads returns the generated reports.
func (c *Client) ListReportDownloads(ctx context.Context) ([]ReportDownload, error) {
	endpoint, err := url.JoinPath(c.reportsURL, reportDownloadsPath)
	if err != nil {
		return nil, fmt.Errorf("build report downloads url: %w", err)
	}
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNoData) {
			return []ReportDownload{}, nil
		}
		return nil, err
	}
	var payload struct {
		Data []ReportDownload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode report downloads")
	}
	if payload.Data == nil {
		return []ReportDownload{}, nil
	}
	return payload.Data, nil
}

// DownloadReport returns the raw archive bytes of the report.
func (c *Client) DownloadReport(ctx context.Context, id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report id is required")
	}
	endpoint, err := url.JoinPath(c.reportsURL, reportFilePath, url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("build report file url: %w", err)
	}
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// ListAdverts returns campaigns filtered by status. A 204 yields no campaigns.
func (c *Client) ListAdverts(ctx context.Context, status int) ([]Advert, error) {
	endpoint, err := url.JoinPath(c.campaignsURL, advertsPath)
	if err != nil {
		return nil, fmt.Errorf("build adverts url: %w", err)
	}
	endpoint += "?status=" + strconv.Itoa(status)
	body, err := c.do(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNoData) {
			return []Advert{}, nil
		}
		return nil, err
	}
	var adverts []Advert
	if err := json.Unmarshal(body, &adverts); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode adverts")
	}
	if adverts == nil {
		adverts = []Advert{}
	}
	return adverts, nil
}

// FullStats requests statistics for all campaigns in one batched call.
// A 204 yields no statistics.
func (c *Client) FullStats(ctx context.Context, req []FullStatsRequest) ([]FullStats, error) {
	if len(req) == 0 {
		return []FullStats{}, nil
	}
	endpoint, err := url.JoinPath(c.campaignsURL, fullStatsPath)
	if err != nil {
		return nil, fmt.Errorf("build fullstats url: %w", err)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode fullstats request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNoData) {
			return []FullStats{}, nil
		}
		return nil, err
	}
	var stats []FullStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode fullstats")
	}
	if stats == nil {
		stats = []FullStats{}
	}
	return stats, nil
}

// do executes the request and classifies the outcome: 204 → NO_DATA,
// 429 → RATE_LIMITED, other non-2xx → UPSTREAM_ERROR, transport → NETWORK_ERROR.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	if payload != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, fmt.Sprintf("%s %s", method, redact(endpoint)))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, pkgerrors.New(pkgerrors.CodeNoData, "no content")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, statusError(pkgerrors.CodeRateLimited, resp, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, statusError(pkgerrors.CodeUpstream, resp, endpoint)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "read response body")
	}
	return data, nil
}

func statusError(code pkgerrors.Code, resp *http.Response, endpoint string) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	return pkgerrors.New(code, fmt.Sprintf("unexpected status %s", resp.Status)).
		WithDetails(pkgerrors.UpstreamDetails{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
			URL:    redact(endpoint),
		})
}

func redact(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	parsed.RawQuery = ""
	return parsed.String()
}
