package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application
	// (e.g., "https://app.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieSecure marks session cookies Secure. Disable only for local
	// development over plain HTTP.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"true"`

	// AllowedUpstreamHeaders is the allow-list of identity-provider response
	// headers copied onto outgoing responses by the request guard.
	AllowedUpstreamHeaders []string `env:"UPSTREAM_HEADER_ALLOWLIST" envDefault:"Content-Range" envSeparator:";"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
