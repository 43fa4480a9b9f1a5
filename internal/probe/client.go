package probe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/okian/rollcall/internal/domain/types"
)

const riskPath = "/api/v1/analytics/risk"

// Client calls the rollcall HTTP API.
type Client struct {
	http *resty.Client
	cfg  *Config
}

// NewClient builds a Client for cfg.BaseURL.
func NewClient(cfg *Config) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &Client{http: c, cfg: cfg}
}

// Ping checks the liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: ping returned %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return nil
}

// Risk requests the risk ranking with window k.
func (c *Client) Risk(ctx context.Context, k int) (types.RiskResponse, error) {
	var out types.RiskResponse
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetQueryParam("k", strconv.Itoa(k)).
		SetResult(&out)
	if c.cfg.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(c.cfg.Limit))
	}
	if c.cfg.CourseID != nil {
		req.SetQueryParam("course_id", strconv.FormatInt(*c.cfg.CourseID, 10))
	}
	if c.cfg.Scope != "" {
		req.SetQueryParam("scope", c.cfg.Scope)
	}

	resp, err := req.Get(riskPath)
	if err != nil {
		return types.RiskResponse{}, fmt.Errorf("risk request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return types.RiskResponse{}, fmt.Errorf("%w: risk returned %d: %s", ErrUnexpectedStatus, resp.StatusCode(), resp.String())
	}
	return out, nil
}
