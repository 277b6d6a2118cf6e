package pide

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jmontalvo/go-pide/internal/api"
	"github.com/jmontalvo/go-pide/internal/auth"
	"github.com/jmontalvo/go-pide/internal/soap"
)

// Default configuration values. SUNARP calls get the long timeout; the
// RENIEC and SUNAT lookups are single-record queries and get the short
// one.
const (
	defaultTimeout = 30 * time.Second
	lookupTimeout  = 10 * time.Second

	defaultRESTBaseURL   = "https://ws2.pide.gob.pe/Rest/SUNARP"
	defaultSOAPEndpoint  = "https://ws2.pide.gob.pe/services/SUNARPWSService"
	defaultReniecBaseURL = "https://ws2.pide.gob.pe/Rest/RENIEC"
	defaultSunatBaseURL  = "https://api.apis.net.pe/v1/ruc"
)

// Client is the PIDE registry client.
type Client struct {
	// Sunarp provides access to the property/vehicle registry.
	Sunarp SunarpService

	// Reniec provides access to the identity registry. Its operations
	// return ErrNoCredentials unless WithReniecCredentials was given.
	Reniec ReniecService

	// Sunat provides the public taxpayer lookup.
	Sunat SunatService

	rest *api.Transport
	soap *soap.Transport
}

// NewClient creates a new PIDE client with the given options. SUNARP
// credentials are mandatory; construction fails without them.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout:       defaultTimeout,
		restBaseURL:   defaultRESTBaseURL,
		soapEndpoint:  defaultSOAPEndpoint,
		reniecBaseURL: defaultReniecBaseURL,
		sunatBaseURL:  defaultSunatBaseURL,
		logger:        zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.restBaseURL == "" || cfg.soapEndpoint == "" {
		return nil, ErrNoBaseURL
	}

	creds := &auth.Credentials{
		Usuario: cfg.usuario,
		Clave:   cfg.clave,
	}
	if !creds.Valid() {
		return nil, ErrNoCredentials
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}

	rest, err := api.NewTransport(cfg.restBaseURL, creds, httpClient)
	if err != nil {
		return nil, err
	}

	soapTransport, err := soap.NewTransport(cfg.soapEndpoint, creds, httpClient)
	if err != nil {
		return nil, err
	}

	if cfg.userAgent != "" {
		rest.UserAgent = cfg.userAgent
		soapTransport.UserAgent = cfg.userAgent
	}

	lookupClient := cfg.httpClient
	if lookupClient == nil {
		lookupClient = &http.Client{
			Timeout: lookupTimeout,
		}
	}

	reniecTransport, err := api.NewTransport(cfg.reniecBaseURL, nil, lookupClient)
	if err != nil {
		return nil, err
	}
	if cfg.userAgent != "" {
		reniecTransport.UserAgent = cfg.userAgent
	}

	client := &Client{
		rest: rest,
		soap: soapTransport,
	}

	// Initialize services
	client.Sunarp = newSunarpService(soapTransport, rest, cfg.logger)
	client.Reniec = &reniecService{
		transport: reniecTransport,
		creds:     cfg.reniec,
		log:       cfg.logger,
	}
	client.Sunat = &sunatService{
		baseURL:    cfg.sunatBaseURL,
		token:      cfg.sunatToken,
		httpClient: lookupClient,
		log:        cfg.logger,
	}

	return client, nil
}

// RESTBaseURL returns the configured SUNARP REST base URL.
func (c *Client) RESTBaseURL() string {
	return c.rest.BaseURL.String()
}

// SOAPEndpoint returns the configured SUNARP SOAP endpoint.
func (c *Client) SOAPEndpoint() string {
	return c.soap.Endpoint.String()
}
