package panapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/catalog"
	"github.com/muurk/fwfleet/internal/fleet"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/version"
)

const (
	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 30 * time.Second

	// APIPath is the path of the manager's XML API
	APIPath = "/api/"

	// maxBodySize caps how much of a response body is read
	maxBodySize = 16 << 20
)

// Sender issues one command envelope to the manager. Implementations are
// stateless per call and safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, cmd, target string) ([]byte, error)
}

// Client is an HTTP client for the manager's XML operational API
type Client struct {
	// BaseURL is the API endpoint (e.g., "https://panorama.example.com/api/")
	BaseURL string

	// Username for HTTP Basic Auth
	Username string

	// Password for HTTP Basic Auth
	Password string

	// UserAgent is sent with every request
	UserAgent string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Classifier turns response bodies into Responses or typed errors
	Classifier *Classifier

	logger *zap.Logger
}

// NewClient creates a client for a manager address. The address may be a
// bare host ("panorama.example.com"), a host:port, or a full URL.
func NewClient(manager string) *Client {
	return NewClientWithURL(ManagerURL(manager))
}

// NewClientWithURL creates a client with a full API URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		UserAgent:  version.UserAgent(),
		HTTPClient: newHTTPClient(DefaultTimeout),
		Classifier: NewClassifier(),
		logger:     logging.Named("panapi"),
	}
}

// ManagerURL builds the API URL for a manager address
func ManagerURL(manager string) string {
	manager = strings.TrimSpace(manager)
	if !strings.Contains(manager, "://") {
		manager = "https://" + manager
	}
	manager = strings.TrimRight(manager, "/")
	if !strings.HasSuffix(manager, strings.TrimRight(APIPath, "/")) {
		manager += APIPath
	} else {
		manager += "/"
	}
	return manager
}

// newHTTPClient builds the transport used for every call. Certificate
// verification is disabled: management interfaces present self-signed
// certificates and the operator accepts that trust decision by running
// this tool.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		},
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// SetTimeout sets the per-request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth sets HTTP Basic Auth credentials
func (c *Client) SetAuth(username, password string) {
	c.Username = username
	c.Password = password
}

// SetLogger replaces the client's logger
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Send issues one GET request carrying the command envelope and optional
// target serial, and returns the raw response body. It never retries.
func (c *Client) Send(ctx context.Context, cmd, target string) ([]byte, error) {
	query := url.Values{}
	query.Set("type", "op")
	query.Set("cmd", cmd)
	if target != "" {
		query.Set("target", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, NewNetworkError("failed to create request", target, err)
	}

	req.SetBasicAuth(c.Username, c.Password)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("target", target),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, NewNetworkError("request failed", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		c.logger.Debug("unexpected status",
			zap.String("target", target),
			zap.Int("status_code", resp.StatusCode),
		)
		return nil, NewHTTPError(resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewNetworkError("failed to read response body", target, err)
	}

	c.logger.Debug("response received",
		zap.String("target", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("length", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return body, nil
}

// Op sends a command and classifies the response
func (c *Client) Op(ctx context.Context, cmd, target string) (*Response, error) {
	body, err := c.Send(ctx, cmd, target)
	if err != nil {
		return nil, err
	}

	resp, err := c.classifier().Classify(body)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			apiErr.Target = target
		}
		return nil, err
	}
	return resp, nil
}

// ConnectedDevices fetches the devices currently connected to the manager,
// sorted by hostname then serial
func (c *Client) ConnectedDevices(ctx context.Context) ([]fleet.Device, error) {
	cmd, err := renderBuiltin(catalog.KeyDevices, catalog.Params{})
	if err != nil {
		return nil, err
	}

	resp, err := c.Op(ctx, cmd, "")
	if err != nil {
		return nil, err
	}
	return resp.Devices(), nil
}

// CheckSoftware runs a software check on one device and returns the
// available versions in manager order
func (c *Client) CheckSoftware(ctx context.Context, serial string) ([]SoftwareVersion, error) {
	cmd, err := renderBuiltin(catalog.KeyCheck, catalog.Params{})
	if err != nil {
		return nil, err
	}

	resp, err := c.Op(ctx, cmd, serial)
	if err != nil {
		return nil, err
	}
	return resp.SoftwareVersions(), nil
}

func (c *Client) classifier() *Classifier {
	if c.Classifier == nil {
		return NewClassifier()
	}
	return c.Classifier
}

func renderBuiltin(key string, params catalog.Params) (string, error) {
	cat, err := catalog.Load()
	if err != nil {
		return "", err
	}
	op, ok := cat.Get(key)
	if !ok {
		return "", fmt.Errorf("catalog has no %q operation", key)
	}
	return op.Render(params)
}
