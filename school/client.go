// Package school talks to the school system's /webapi.
package school

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/savendebyc-boop/sgo-telma/cookies"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
)

const (
	serviceName = "school"

	// The upstream only accepts browser-looking clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	DefaultTimeout = 15 * time.Second

	// maxBodyBytes bounds how much of an upstream response is buffered.
	maxBodyBytes = 8 << 20
)

// Upstream resource paths
const (
	PathLoginData  = "/webapi/logindata"
	PathLogin      = "/webapi/auth/login"
	PathLogout     = "/webapi/auth/logout"
	PathContext    = "/webapi/context"
	PathDiary      = "/webapi/student/diary"
	PathGrades     = "/webapi/student/grades"
	PathAssigns    = "/webapi/student/diary/assigns"
	PathTotalMarks = "/webapi/student/total-marks"
)

// Credentials authenticate a call on behalf of a logged in user.
type Credentials struct {
	BaseURL     string
	Cookies     cookies.Jar
	AccessToken string
}

// Client handles school system protocol operations.
type Client struct {
	httpClient *http.Client
	regions    Regions
	userAgent  string
}

// ClientOption configures the school client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent overrides the browser User-Agent sent upstream.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a new school system client.
func NewClient(regions Regions, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		regions:    regions,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL resolves a region code to the instance serving it.
func (c *Client) BaseURL(region string) string {
	return c.regions.BaseURL(region)
}

// Fetch performs an authenticated GET and returns the upstream JSON verbatim.
func (c *Client) Fetch(ctx context.Context, creds Credentials, path string, params url.Values) (json.RawMessage, error) {
	target := strings.TrimSuffix(creds.BaseURL, "/") + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req, creds)

	status, _, body, err := c.do(req)
	if err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, 0, nil, err)
	}
	if status < 200 || status > 299 {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, fmt.Errorf("GET %s failed", path))
	}
	if !json.Valid(body) {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, fmt.Errorf("GET %s returned invalid JSON", path))
	}
	return json.RawMessage(body), nil
}

// Logout ends the upstream session.
func (c *Client) Logout(ctx context.Context, creds Credentials) error {
	target := strings.TrimSuffix(creds.BaseURL, "/") + PathLogout
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, creds)

	status, _, body, err := c.do(req)
	if err != nil {
		return relayerrors.NewUpstreamError(serviceName, 0, nil, err)
	}
	if status < 200 || status > 299 {
		return relayerrors.NewUpstreamError(serviceName, status, body, fmt.Errorf("logout failed"))
	}
	return nil
}

func (c *Client) authorize(req *http.Request, creds Credentials) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if cookie := cookies.Encode(creds.Cookies); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	req.Header.Set("at", creds.AccessToken)
}

// do sends the request and buffers the body.
func (c *Client) do(req *http.Request) (int, http.Header, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func mergeCookies(jar cookies.Jar, header http.Header, step string) {
	if dropped := jar.Merge(header.Values("Set-Cookie")); dropped > 0 {
		log.Debug().Str("step", step).Int("dropped", dropped).Msg("Ignored malformed Set-Cookie entries")
	}
}

func jsonRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
