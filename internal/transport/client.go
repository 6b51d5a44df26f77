package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rpattn/metaemit/internal/domain"
	"github.com/rpattn/metaemit/internal/reqctx"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ingestProposalPath  = "/aspects?action=ingestProposal"
	configPath          = "/config"
	restliProtocolKey   = "X-RestLi-Protocol-Version"
	restliProtocolValue = "2.0.0"
	requestIDHeader     = "X-Request-ID"
	defaultUserAgent    = "metaemit/1.0"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig configures the catalog REST client.
type ClientConfig struct {
	// Server is the catalog metadata service base URL, e.g. http://localhost:8080.
	Server string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// MaxRetries for retryable proposal sends. Zero means the default of 3;
	// use a negative value to disable retries.
	MaxRetries int

	// RetryInitialInterval is the first backoff delay (default: 500ms).
	RetryInitialInterval time.Duration

	// RateLimit requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// Headers to add to all requests.
	Headers map[string]string

	UserAgent string

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// DefaultClientConfig returns a client config with sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:              30 * time.Second,
		MaxRetries:           3,
		RetryInitialInterval: 500 * time.Millisecond,
		RateLimit:            10.0,
		RateBurst:            5,
		UserAgent:            defaultUserAgent,
		Headers:              make(map[string]string),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client delivers change proposals to the catalog ingest endpoint and posts
// raw JSON bodies to other catalog endpoints. It is safe for concurrent use.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         *zap.Logger
}

// NewClient creates a client, filling zero values from DefaultClientConfig.
func NewClient(config ClientConfig, log *zap.Logger) *Client {
	defaults := DefaultClientConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryInitialInterval == 0 {
		config.RetryInitialInterval = defaults.RetryInitialInterval
	}
	if config.RateLimit == 0 {
		config.RateLimit = defaults.RateLimit
	}
	if config.RateBurst == 0 {
		config.RateBurst = defaults.RateBurst
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	config.Server = strings.TrimSuffix(config.Server, "/")
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		log:         log,
	}
}

// Server returns the configured base URL without a trailing slash.
func (c *Client) Server() string {
	return c.config.Server
}

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// Request is a single HTTP exchange. Body is kept as bytes so it can be
// replayed on retry.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response wraps an HTTP response body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals the response body into the given target.
func (r *Response) JSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type ingestEnvelope struct {
	Proposal proposalPayload `json:"proposal"`
}

type proposalPayload struct {
	EntityType string         `json:"entityType"`
	EntityURN  string         `json:"entityUrn"`
	ChangeType string         `json:"changeType"`
	AspectName string         `json:"aspectName"`
	Aspect     genericPayload `json:"aspect"`
}

type genericPayload struct {
	Value       string `json:"value"`
	ContentType string `json:"contentType"`
}

// EncodeProposal renders the ingest envelope for a proposal. The aspect is
// serialized to a JSON string as the ingest endpoint expects.
func EncodeProposal(proposal domain.ChangeProposal) ([]byte, error) {
	aspect, err := json.Marshal(proposal.Aspect)
	if err != nil {
		return nil, fmt.Errorf("marshal %s aspect: %w", proposal.AspectName, err)
	}
	body, err := json.Marshal(ingestEnvelope{Proposal: proposalPayload{
		EntityType: string(proposal.EntityType),
		EntityURN:  proposal.EntityURN,
		ChangeType: string(proposal.ChangeType),
		AspectName: proposal.AspectName,
		Aspect: genericPayload{
			Value:       string(aspect),
			ContentType: "application/json",
		},
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal proposal: %w", err)
	}
	return body, nil
}

// =============================================================================
// CLIENT METHODS
// =============================================================================

// Send delivers one change proposal, retrying throttled and unavailable
// responses with exponential backoff.
func (c *Client) Send(ctx context.Context, proposal domain.ChangeProposal) error {
	if err := proposal.Validate(); err != nil {
		return err
	}
	body, err := EncodeProposal(proposal)
	if err != nil {
		return err
	}

	req := &Request{
		Method: http.MethodPost,
		URL:    c.config.Server + ingestProposalPath,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			restliProtocolKey: restliProtocolValue,
		},
		Body: body,
	}
	_, err = c.doWithRetry(ctx, "send proposal", req)
	return err
}

// Post performs a single JSON POST against an absolute endpoint. Non-2xx
// statuses are returned as TransportError.
func (c *Client) Post(ctx context.Context, endpoint string, body any, headers map[string]string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	reqHeaders := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		reqHeaders[k] = v
	}
	return c.doOnce(ctx, "post", &Request{
		Method:  http.MethodPost,
		URL:     endpoint,
		Headers: reqHeaders,
		Body:    payload,
	})
}

// TestConnection fetches the catalog config endpoint and checks that it is a
// metadata service.
func (c *Client) TestConnection(ctx context.Context) (map[string]any, error) {
	url := c.config.Server + configPath
	resp, err := c.doOnce(ctx, "test connection", &Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return nil, err
	}
	var cfg map[string]any
	if err := resp.JSON(&cfg); err != nil {
		return nil, &TransportError{Op: "test connection", URL: url, StatusCode: resp.StatusCode, Message: "response is not JSON", Err: err}
	}
	if noCode, _ := cfg["noCode"].(string); noCode != "true" {
		return nil, &TransportError{Op: "test connection", URL: url, StatusCode: resp.StatusCode, Message: "endpoint is not a metadata service"}
	}
	return cfg, nil
}

func (c *Client) doWithRetry(ctx context.Context, op string, req *Request) (*Response, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInitialInterval
	policy.MaxElapsedTime = 0

	var resp *Response
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		resp, err = c.doOnce(ctx, op, req)
		if err == nil {
			return nil
		}
		var terr *TransportError
		if errors.As(err, &terr) && terr.Retryable() {
			c.log.Warn("catalog request failed, retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.MaxRetries)), ctx))
	if err != nil {
		var terr *TransportError
		if !errors.As(err, &terr) {
			err = &TransportError{Op: op, URL: req.URL, Err: err}
		}
		return resp, err
	}
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, op string, req *Request) (*Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: op, URL: req.URL, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: req.URL, Err: fmt.Errorf("create request: %w", err)}
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	requestID, ok := reqctx.RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set(requestIDHeader, requestID)
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: op, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: req.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	c.log.Debug("catalog request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
	)

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}
	if !response.IsSuccess() {
		return response, &TransportError{
			Op:         op,
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}
	return response, nil
}
