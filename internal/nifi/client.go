// Package nifi implements the middleware's sole collaborator with the NiFi
// REST API: token-based authentication with a development-mode fallback,
// revision-aware optimistic-concurrency mutations, port-type (input/output)
// endpoint discovery, bulletin-board sanitization, and create/poll/delete
// lifecycle management for NiFi's asynchronous drop, listing, and
// provenance sub-resources.
//
// A Client is bound to exactly one NiFi server for its lifetime and is not
// safe to share across concurrent HTTP requests to the middleware (each
// request constructs its own Client; see internal/reqctx). It is, however,
// safe for concurrent use by a single request's own goroutines.
package nifi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/telemetry"
)

// Revision is NiFi's optimistic-concurrency envelope. Every mutable entity
// carries one; every PUT/DELETE must echo back the exact version last seen
// on a GET of that entity.
type Revision struct {
	ClientID string `json:"clientId,omitempty"`
	Version  int64  `json:"version"`
}

// Entity is the polymorphic shape NiFi returns for processors, connections,
// ports, process groups, and controller services: a top-level id plus
// revision, a component block with type-specific fields, and optional
// status/bulletins. Component is left as a generic map because its shape
// diverges per entity kind and the response shaper (internal/shaper) reads
// only a handful of fields out of it.
type Entity struct {
	ID        string         `json:"id"`
	URI       string         `json:"uri,omitempty"`
	Revision  Revision       `json:"revision"`
	Component map[string]any `json:"component"`
	Status    map[string]any `json:"status,omitempty"`
	Bulletins []Bulletin     `json:"bulletins,omitempty"`
}

// Bulletin is one entry from NiFi's bulletin board.
type Bulletin struct {
	ID        int64          `json:"id"`
	GroupID   string         `json:"groupId,omitempty"`
	SourceID  string         `json:"sourceId,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Bulletin  map[string]any `json:"bulletin"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger configures the client's logger. Nil falls back to a noop
// logger.
func WithLogger(l telemetry.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer configures the client's tracer. Nil falls back to a noop
// tracer.
func WithTracer(t telemetry.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithCredentials sets the username/password used for token authentication.
// Omit for an already-unsecured (development mode) NiFi instance.
func WithCredentials(username, password string) Option {
	return func(c *Client) { c.username, c.password = username, password }
}

// WithTLSInsecureSkipVerify disables TLS certificate verification. Mirrors
// spec.md §4.A's "TLS-verification flag".
func WithTLSInsecureSkipVerify(skip bool) Option {
	return func(c *Client) { c.tlsSkipVerify = skip }
}

// Client is a typed wrapper over one NiFi REST API base URL.
type Client struct {
	serverID string
	baseURL  string
	http     *http.Client

	username, password string
	tlsSkipVerify      bool

	// clientID is generated once per Client instance and echoed in every
	// revision payload this client sends, per spec.md §4.A.
	clientID string

	token         string
	authenticated bool
	devMode       bool

	logger telemetry.Logger
	tracer telemetry.Tracer
}

// New constructs a Client bound to baseURL (NiFi's "/nifi-api" root) for the
// configured server id.
func New(serverID, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverID: serverID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		clientID: uuid.NewString(),
		logger:   telemetry.NoopLogger{},
		tracer:   telemetry.NoopTracer{},
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	if c.tlsSkipVerify && c.http.Transport == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.http.Transport = tr
	}
	return c
}

// ServerID identifies which configured NiFi server this client talks to.
// Satisfies reqctx.NiFiClient.
func (c *Client) ServerID() string { return c.serverID }

// ClientID returns the revision client-id this Client stamps on every
// mutation.
func (c *Client) ClientID() string { return c.clientID }

// ensureAuthenticated performs the token handshake on first use. It is
// idempotent: once authenticated (or once dev-mode is detected), subsequent
// calls are no-ops.
func (c *Client) ensureAuthenticated(ctx context.Context) error {
	if c.authenticated || c.devMode {
		return nil
	}
	if c.username == "" && c.password == "" {
		// No credentials configured: assume the NiFi instance is already
		// unsecured and proceed without a token.
		c.devMode = true
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "nifi.authenticate")
	defer span.End()

	form := url.Values{"username": {c.username}, "password": {c.password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/access/token", strings.NewReader(form.Encode()))
	if err != nil {
		return apperr.Internal(err, "build auth request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport(err, "auth request to %s failed", c.baseURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusOK {
		c.token = strings.TrimSpace(string(body))
		c.authenticated = true
		return nil
	}

	if resp.StatusCode == http.StatusConflict && strings.Contains(string(body), "Access tokens are only issued over HTTPS") && strings.HasPrefix(c.baseURL, "http://") {
		c.logger.Warn(ctx, "nifi server rejected token auth over plaintext HTTP; continuing unauthenticated (development mode)", "server_id", c.serverID, "base_url", c.baseURL)
		c.devMode = true
		return nil
	}

	return apperr.Auth("nifi authentication failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// doJSON issues method to path (relative to the NiFi API root) with an
// optional JSON body, decoding a successful response into out (if non-nil).
// Non-2xx responses are mapped through statusToError.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return err
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal(err, "encode request body")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return apperr.Internal(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.authenticated && !c.devMode {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport(err, "%s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transport(err, "read response body for %s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusToError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperr.Internal(err, "decode response for %s %s", method, path)
		}
	}
	return nil
}

// doRaw is doJSON's unmarshal-free twin: it returns the successful response
// body verbatim so callers needing to pre-process the bytes (see
// GetBulletins's newline sanitization) can do so before decoding.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if err := c.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Internal(err, "encode request body")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, apperr.Internal(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.authenticated && !c.devMode {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Transport(err, "%s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Transport(err, "read response body for %s %s", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusToError(resp.StatusCode, raw)
	}
	return raw, nil
}

// statusToError maps an HTTP status code and body to the error taxonomy in
// spec.md §4.A/§7.
func statusToError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}
	switch status {
	case http.StatusNotFound:
		return apperr.NotFound("nifi: %s", msg)
	case http.StatusConflict:
		return apperr.Conflict(0, "nifi: %s", msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.BadRequest("nifi: %s", msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Auth("nifi: %s", msg)
	default:
		return apperr.Transport(fmt.Errorf("status %d", status), "nifi: %s", msg)
	}
}

// revisionQuery builds the ?version=&clientId= query string NiFi requires
// on every PUT/DELETE for a specific revision.
func revisionQuery(rev Revision) url.Values {
	q := url.Values{}
	q.Set("version", fmt.Sprintf("%d", rev.Version))
	if rev.ClientID != "" {
		q.Set("clientId", rev.ClientID)
	}
	return q
}
