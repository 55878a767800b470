package ecodevices

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

// clientConfig holds the configuration for a Client.
type clientConfig struct {
	port           int
	username       string
	password       string
	requestTimeout time.Duration
	profile        Profile
	httpClient     *http.Client
	logger         *slog.Logger
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		port:           80,
		requestTimeout: 10 * time.Second,
		profile:        ProfileSingleEndpoint,
		httpClient:     nil,
		logger:         nil,
	}
}

// hasCredentials reports whether Basic auth should be attached.
func (c *clientConfig) hasCredentials() bool {
	return c.username != "" && c.password != ""
}

// WithPort sets the HTTP port of the device.
// Default is 80.
func WithPort(port int) ClientOption {
	return func(c *clientConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		c.port = port
		return nil
	}
}

// WithCredentials sets the HTTP Basic credentials.
// Credentials are only sent when both values are non-empty.
func WithCredentials(username, password string) ClientOption {
	return func(c *clientConfig) error {
		c.username = username
		c.password = password
		return nil
	}
}

// WithRequestTimeout bounds each HTTP request, connect and read included.
// Default is 10 seconds.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		c.requestTimeout = d
		return nil
	}
}

// WithProfile selects which endpoints back each reading.
// Default is ProfileSingleEndpoint.
func WithProfile(p Profile) ClientOption {
	return func(c *clientConfig) error {
		if !p.valid() {
			return errors.New("unknown device profile")
		}
		c.profile = p
		return nil
	}
}

// WithHTTPClient makes the client use a caller-owned *http.Client.
// Close leaves such a client untouched.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithLogger sets a structured logger for debug and error logging.
// By default, no logging is performed.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}
