// Package soap provides the envelope transport for the SUNARP SOAP
// service. The service predates machine-friendly conventions: results
// arrive either as plain strings inside <return> or as free-form XML
// trees, sometimes in legacy single-byte charsets, so the decoding
// helpers here are deliberately lenient.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/jmontalvo/go-pide/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	serviceNS  = "http://app.wssunarp.pide.gob.pe/"
)

// Param is a single operation argument. Order is preserved on the wire.
type Param struct {
	Name  string
	Value string
}

// MarshalXML writes the param as <name>value</name>.
func (p Param) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	return e.EncodeElement(p.Value, xml.StartElement{Name: xml.Name{Local: p.Name}})
}

type envelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	NSEnv   string   `xml:"xmlns:soapenv,attr"`
	NSSer   string   `xml:"xmlns:ser,attr"`
	Header  string   `xml:"soapenv:Header"`
	Body    body     `xml:"soapenv:Body"`
}

type body struct {
	Operation operation
}

type operation struct {
	XMLName xml.Name
	Params  []Param
}

// Transport issues SOAP calls against one service endpoint. The
// underlying HTTP session is created on first use and reused for the
// lifetime of the transport; it is never torn down explicitly.
type Transport struct {
	Endpoint    *url.URL
	Credentials *auth.Credentials
	UserAgent   string

	base *http.Client

	once    sync.Once
	session *http.Client
}

// NewTransport creates a Transport for the given service endpoint.
func NewTransport(endpoint string, creds *auth.Credentials, httpClient *http.Client) (*Transport, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials must be provided")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid SOAP endpoint: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	return &Transport{
		Endpoint:    u,
		Credentials: creds,
		UserAgent:   "go-pide/1.0",
		base:        httpClient,
	}, nil
}

// client returns the lazily created session client. The session carries
// its own cookie jar so upstream affinity cookies survive across calls.
// The sync.Once barrier keeps the transition safe if the transport is
// ever shared across goroutines.
func (t *Transport) client() *http.Client {
	t.once.Do(func() {
		jar, err := cookiejar.New(nil)
		if err != nil {
			t.session = t.base
			return
		}
		c := *t.base
		c.Jar = jar
		t.session = &c
	})
	return t.session
}

// Response is a raw SOAP response envelope.
type Response struct {
	StatusCode int
	Body       []byte
}

// Do invokes a service operation and returns the raw response envelope.
// Credentials are injected ahead of the method-specific parameters.
// Interpreting the envelope (typed <return> value vs. free-form tree) is
// the caller's concern; see FirstReturn and Find.
func (t *Transport) Do(ctx context.Context, method string, params ...Param) (*Response, error) {
	all := make([]Param, 0, len(params)+2)
	all = append(all,
		Param{Name: "usuario", Value: t.Credentials.Usuario},
		Param{Name: "clave", Value: t.Credentials.Clave},
	)
	all = append(all, params...)

	env := envelope{
		NSEnv: envelopeNS,
		NSSer: serviceNS,
		Body: body{
			Operation: operation{
				XMLName: xml.Name{Local: "ser:" + method},
				Params:  all,
			},
		},
	}

	payload, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("building envelope for %s: %w", method, err)
	}

	buf := bytes.NewBufferString(xml.Header)
	buf.Write(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)
	req.Header.Set("User-Agent", t.UserAgent)

	resp, err := t.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limitedReader := io.LimitReader(resp.Body, defaultMaxBodySize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(data)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// newDecoder returns a decoder lenient enough for the markup the service
// emits: non-strict parsing plus legacy single-byte charset support.
func newDecoder(doc []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false
	dec.CharsetReader = charsetReader
	return dec
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}

// Return is the <return> element of a response envelope.
type Return struct {
	// Text is the element's own character data, trimmed.
	Text string

	// HasChildren reports whether the element carries nested elements
	// rather than a plain string result.
	HasChildren bool
}

// FirstReturn locates the first <return> element of a response envelope.
// It returns nil when the envelope has none.
func FirstReturn(doc []byte) (*Return, error) {
	dec := newDecoder(doc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing envelope: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "return" {
			continue
		}

		ret := &Return{}
		var text strings.Builder
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("parsing envelope: %w", err)
			}
			switch data := tok.(type) {
			case xml.StartElement:
				ret.HasChildren = true
				depth++
			case xml.EndElement:
				depth--
			case xml.CharData:
				if depth == 1 {
					text.Write(data)
				}
			}
		}
		ret.Text = strings.TrimSpace(text.String())
		return ret, nil
	}
}

// Find decodes every element named local, wherever it occurs in the
// document, into a value of type T. Namespaces are ignored: the service
// mixes prefixed and unprefixed markup between operations.
func Find[T any](doc []byte, local string) ([]T, error) {
	dec := newDecoder(doc)
	var out []T
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing envelope: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}

		var v T
		if err := dec.DecodeElement(&v, &se); err != nil {
			return nil, fmt.Errorf("decoding <%s>: %w", local, err)
		}
		out = append(out, v)
	}
}
