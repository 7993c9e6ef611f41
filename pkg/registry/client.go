/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mweibel/commodore/pkg/defaults"
	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/inventory"
)

const userAgent = "commodore-registry/1.0"

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client talks to a cluster registry API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	hc      *http.Client
}

// NewClient creates a registry client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"invalid registry URL", map[string]any{"url": baseURL})
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: defaults.RegistryRequestTimeout,
		hc:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetCluster fetches one cluster definition by ID.
func (c *Client) GetCluster(ctx context.Context, id string) (*inventory.Cluster, error) {
	var cluster inventory.Cluster
	if err := c.get(ctx, fmt.Sprintf("/clusters/%s", url.PathEscape(id)), &cluster); err != nil {
		return nil, err
	}
	return &cluster, nil
}

// ListClusters fetches all registered clusters.
func (c *Client) ListClusters(ctx context.Context) ([]inventory.Cluster, error) {
	var clusters []inventory.Cluster
	if err := c.get(ctx, "/clusters", &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// GetTenant fetches one tenant definition by ID.
func (c *Client) GetTenant(ctx context.Context, id string) (*inventory.Tenant, error) {
	var tenant inventory.Tenant
	if err := c.get(ctx, fmt.Sprintf("/tenants/%s", url.PathEscape(id)), &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "building registry request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"registry request failed", err, map[string]any{"path": path})
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewWithContext(apperrors.ErrCodeNotFound,
			"registry resource not found", map[string]any{"path": path})
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.NewWithContext(apperrors.ErrCodeUnauthorized,
			"registry rejected credentials", map[string]any{"path": path})
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewWithContext(apperrors.ErrCodeFetch,
			"unexpected registry response", map[string]any{
				"path":   path,
				"status": resp.StatusCode,
				"body":   strings.TrimSpace(string(body)),
			})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"decoding registry response", err, map[string]any{"path": path})
	}
	return nil
}
