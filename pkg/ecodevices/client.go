package ecodevices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/resty.v1"
)

// Client represents an Eco-Devices unit reachable over HTTP.
type Client struct {
	host           string
	port           int
	username       string
	password       string
	requestTimeout time.Duration
	profile        Profile
	logger         *slog.Logger

	rest        *resty.Client
	transport   *http.Transport
	ownsSession bool

	mu       sync.RWMutex
	identity *DeviceIdentity
	isClosed bool
}

// NewClient creates a client for the device at host.
// No request is made until a reading is asked for.
// Options can be provided to configure the client behavior.
func NewClient(host string, opts ...ClientOption) (*Client, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	c := &Client{
		host:           host,
		port:           cfg.port,
		requestTimeout: cfg.requestTimeout,
		profile:        cfg.profile,
		logger:         cfg.logger,
	}
	if cfg.hasCredentials() {
		c.username = cfg.username
		c.password = cfg.password
	}

	hc := &http.Client{}
	if cfg.httpClient != nil {
		// resty installs its own CheckRedirect; the copy keeps the
		// caller's client untouched while sharing its Transport.
		*hc = *cfg.httpClient
	} else {
		c.transport = http.DefaultTransport.(*http.Transport).Clone()
		hc.Transport = c.transport
		c.ownsSession = true
	}
	c.rest = resty.NewWithClient(hc).
		SetLogger(logWriter{c.logger}).
		SetRedirectPolicy(resty.RedirectPolicyFunc(limitRedirects))

	if c.logger != nil {
		c.logger.Debug("client created", "host", host, "port", c.port, "profile", c.profile, "ownsSession", c.ownsSession)
	}

	return c, nil
}

// Host returns the configured device host.
func (c *Client) Host() string {
	return c.host
}

// Close releases idle connections when the client created its own
// *http.Client. A client supplied with WithHTTPClient is left open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return nil
	}
	c.isClosed = true
	if c.ownsSession {
		c.transport.CloseIdleConnections()
	}
	if c.logger != nil {
		c.logger.Debug("client closed", "host", c.host, "ownsSession", c.ownsSession)
	}
	return nil
}

func (c *Client) closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}

const maxRedirects = 10

var errTooManyRedirects = fmt.Errorf("stopped after %d redirects", maxRedirects)

// limitRedirects follows up to maxRedirects redirects, e.g. to a login page.
func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errTooManyRedirects
	}
	return nil
}

// execute performs one GET against path and decodes the response.
func (c *Client) execute(ctx context.Context, path string) (RawStatus, error) {
	u := endpointURL(c.host, c.port, path)
	if c.closed() {
		return nil, &ConnectionError{URL: u, Err: net.ErrClosed}
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/xml, text/xml")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := req.Get(u)
	if errors.Is(err, errTooManyRedirects) {
		return nil, &ProtocolError{URL: u, Reason: "redirect loop", Err: errTooManyRedirects}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%v: %w", err, ctxErr)
		}
		if c.logger != nil {
			c.logger.Warn("request failed", "url", u, "error", err)
		}
		return nil, &ConnectionError{URL: u, Err: err}
	}

	if c.logger != nil {
		c.logger.Debug("response received", "url", u, "status", resp.StatusCode(), "size", len(resp.Body()))
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized:
		return nil, &AuthenticationError{URL: u}
	case code < 200 || code > 299:
		return nil, &ProtocolError{URL: u, Reason: fmt.Sprintf("unexpected HTTP status %d", code)}
	}

	status, err := ParseStatus(resp.Body())
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			pe.URL = u
		}
		return nil, err
	}
	return status, nil
}

// FetchIdentity reads the firmware version and MAC address and caches them.
func (c *Client) FetchIdentity(ctx context.Context) (DeviceIdentity, error) {
	status, err := c.execute(ctx, PathStatus)
	if err != nil {
		return DeviceIdentity{}, err
	}
	id := ProjectIdentity(status)

	c.mu.Lock()
	c.identity = &id
	c.mu.Unlock()

	return id, nil
}

// Identity returns the identity cached by the last FetchIdentity.
func (c *Client) Identity() (DeviceIdentity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return DeviceIdentity{}, false
	}
	return *c.identity, true
}

// Ping reports whether the device answers with a valid status document.
// It never returns an error.
func (c *Client) Ping(ctx context.Context) bool {
	if _, err := c.execute(ctx, PathStatus); err != nil {
		if c.logger != nil {
			c.logger.Debug("ping failed", "host", c.host, "error", err)
		}
		return false
	}
	return true
}

// GlobalGet returns every value the device exposes. With
// ProfileSplitEndpoint the pages are fetched concurrently and merged;
// any failure fails the whole call.
func (c *Client) GlobalGet(ctx context.Context) (RawStatus, error) {
	paths := c.profile.globalPaths()
	if len(paths) == 1 {
		return c.execute(ctx, paths[0])
	}

	parts := make([]RawStatus, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			status, err := c.execute(gctx, path)
			if err != nil {
				return err
			}
			parts[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := RawStatus{}
	for _, part := range parts {
		merged.merge(part)
	}
	return merged, nil
}

// Teleinfo reads teleinformation channel ch.
func (c *Client) Teleinfo(ctx context.Context, ch Channel) (TeleinfoReading, error) {
	if err := ch.Validate(); err != nil {
		return TeleinfoReading{}, err
	}
	status, err := c.execute(ctx, c.profile.teleinfoPath(ch))
	if err != nil {
		return TeleinfoReading{}, err
	}
	return ProjectTeleinfo(status, ch), nil
}

// Counter reads pulse counter channel ch.
func (c *Client) Counter(ctx context.Context, ch Channel) (CounterReading, error) {
	if err := ch.Validate(); err != nil {
		return CounterReading{}, err
	}
	status, err := c.execute(ctx, PathStatus)
	if err != nil {
		return CounterReading{}, err
	}
	return ProjectCounter(status, ch), nil
}

// logWriter forwards resty's internal log lines to slog at debug level.
type logWriter struct {
	logger *slog.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	if w.logger != nil {
		w.logger.Debug("resty", "msg", string(bytes.TrimSpace(p)))
	}
	return len(p), nil
}
