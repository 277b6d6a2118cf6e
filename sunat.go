package pide

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// SunatService looks up taxpayers in the public SUNAT RUC directory.
type SunatService interface {
	// RUC retrieves the taxpayer registered under an 11-digit RUC. A
	// non-200 upstream answer yields a NotFoundError: the public lookup
	// signals "no result" through its status code.
	RUC(ctx context.Context, ruc string) (*RUCInfo, error)
}

// RUCInfo is the taxpayer data the public RUC directory returns.
type RUCInfo struct {
	RUC          string `json:"numeroDocumento"`
	Name         string `json:"nombre"`
	DocumentType string `json:"tipoDocumento"`
	Status       string `json:"estado"`
	Condition    string `json:"condicion"`
	Address      string `json:"direccion"`
	Ubigeo       string `json:"ubigeo"`
	District     string `json:"distrito"`
	Province     string `json:"provincia"`
	Department   string `json:"departamento"`
}

// sunatService implements SunatService.
type sunatService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

const sunatMaxBodySize = 1 << 20

// RUC retrieves the taxpayer registered under a RUC.
func (s *sunatService) RUC(ctx context.Context, ruc string) (*RUCInfo, error) {
	ruc = strings.TrimSpace(ruc)
	if ruc == "" {
		return nil, &ValidationError{
			ServiceError: ServiceError{Message: "ruc es obligatorio"},
			Field:        "ruc",
		}
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("pide: invalid SUNAT base URL: %w", err)
	}
	q := u.Query()
	q.Set("numero", ruc)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, sunatMaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("consulta RUC sin resultados",
			zap.String("ruc", ruc),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &NotFoundError{ServiceError{
			Message: fmt.Sprintf("sin resultados para el RUC %s", ruc),
		}}
	}

	var info RUCInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("pide: decoding SUNAT response: %w", err)
	}
	return &info, nil
}
