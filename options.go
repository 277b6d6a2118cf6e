package pide

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jmontalvo/go-pide/internal/auth"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	usuario string
	clave   string

	reniec     *auth.ReniecCredentials
	sunatToken string

	restBaseURL   string
	soapEndpoint  string
	reniecBaseURL string
	sunatBaseURL  string

	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *zap.Logger
}

// WithCredentials sets the SUNARP usuario/clave pair. Required.
func WithCredentials(usuario, clave string) ClientOption {
	return func(c *clientConfig) {
		c.usuario = usuario
		c.clave = clave
	}
}

// WithReniecCredentials enables the RENIEC identity service.
func WithReniecCredentials(ruc, dni, password string) ClientOption {
	return func(c *clientConfig) {
		c.reniec = &auth.ReniecCredentials{
			RUC:      ruc,
			DNI:      dni,
			Password: password,
		}
	}
}

// WithSunatToken sets the bearer token for the public RUC lookup. The
// lookup works without one, within the provider's anonymous quota.
func WithSunatToken(token string) ClientOption {
	return func(c *clientConfig) {
		c.sunatToken = token
	}
}

// WithRESTBaseURL overrides the SUNARP REST base URL.
func WithRESTBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.restBaseURL = url
	}
}

// WithSOAPEndpoint overrides the SUNARP SOAP service endpoint.
func WithSOAPEndpoint(url string) ClientOption {
	return func(c *clientConfig) {
		c.soapEndpoint = url
	}
}

// WithReniecBaseURL overrides the RENIEC REST base URL.
func WithReniecBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.reniecBaseURL = url
	}
}

// WithSunatBaseURL overrides the SUNAT RUC lookup URL.
func WithSunatBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.sunatBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client for every service.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the SUNARP request timeout.
// Note: This option is ignored when WithHTTPClient is used;
// set the timeout directly on the provided client instead.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger. The default is a nop logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
