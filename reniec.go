package pide

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jmontalvo/go-pide/internal/api"
	"github.com/jmontalvo/go-pide/internal/auth"
)

// ReniecService provides access to the RENIEC identity registry. Unlike
// SUNARP, RENIEC signals failure with machine-readable coResultado codes,
// so no text classification is involved.
type ReniecService interface {
	// ConsultDNI retrieves the person registered under a DNI.
	ConsultDNI(ctx context.Context, dni string) (*PersonRecord, error)

	// UpdateCredential replaces the consultation password.
	UpdateCredential(ctx context.Context, oldCredential, newCredential string) error
}

// PersonRecord is the identity data RENIEC returns for a DNI.
type PersonRecord struct {
	GivenNames      string `json:"prenombres"`
	PaternalSurname string `json:"apPrimer"`
	MaternalSurname string `json:"apSegundo"`
	Address         string `json:"direccion"`
	CivilStatus     string `json:"estadoCivil"`
	Ubigeo          string `json:"ubigeo"`
	Restriction     string `json:"restriccion"`
	Photo           string `json:"foto,omitempty"`
}

// Result codes of the RENIEC consultation service.
const (
	reniecOK                = "0000"
	reniecInvalidUser       = "1001"
	reniecExpiredCredential = "1002"
)

// reniecService implements ReniecService.
type reniecService struct {
	transport *api.Transport
	creds     *auth.ReniecCredentials
	log       *zap.Logger
}

type reniecConsultResponse struct {
	CoResultado       string `json:"coResultado"`
	DeResultado       string `json:"deResultado"`
	ConsultarResponse struct {
		Return struct {
			CoResultado  string        `json:"coResultado"`
			DeResultado  string        `json:"deResultado"`
			DatosPersona *PersonRecord `json:"datosPersona"`
		} `json:"return"`
	} `json:"consultarResponse"`
}

// ConsultDNI retrieves the person registered under a DNI.
func (s *reniecService) ConsultDNI(ctx context.Context, dni string) (*PersonRecord, error) {
	if !s.creds.Valid() {
		return nil, ErrNoCredentials
	}

	dni = strings.TrimSpace(dni)
	if dni == "" {
		return nil, &ValidationError{
			ServiceError: ServiceError{Message: "dni es obligatorio"},
			Field:        "dni",
		}
	}

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:   http.MethodPost,
		Endpoint: "Consultar",
		Extra: map[string]any{
			"nuDniConsulta": dni,
			"nuDniUsuario":  s.creds.DNI,
			"nuRucUsuario":  s.creds.RUC,
			"password":      s.creds.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(resp.StatusCode) {
		return nil, httpError(resp.StatusCode, resp.Body)
	}

	var decoded reniecConsultResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("pide: decoding RENIEC response: %w", err)
	}

	code, detail := decoded.CoResultado, decoded.DeResultado
	if code == "" {
		code, detail = decoded.ConsultarResponse.Return.CoResultado, decoded.ConsultarResponse.Return.DeResultado
	}
	if err := reniecResultError(code, detail); err != nil {
		return nil, err
	}

	person := decoded.ConsultarResponse.Return.DatosPersona
	if person == nil {
		return nil, &NotFoundError{ServiceError{
			Message: fmt.Sprintf("sin datos para el DNI %s", dni),
		}}
	}

	s.log.Debug("consulta RENIEC exitosa", zap.String("dni", dni))
	return person, nil
}

// UpdateCredential replaces the consultation password.
func (s *reniecService) UpdateCredential(ctx context.Context, oldCredential, newCredential string) error {
	if !s.creds.Valid() {
		return ErrNoCredentials
	}
	if strings.TrimSpace(newCredential) == "" {
		return &ValidationError{
			ServiceError: ServiceError{Message: "la credencial nueva es obligatoria"},
			Field:        "newCredential",
		}
	}

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:   http.MethodPost,
		Endpoint: "Actualizar",
		Extra: map[string]any{
			"credencialAnterior": oldCredential,
			"credencialNueva":    newCredential,
			"nuDni":              s.creds.DNI,
			"nuRuc":              s.creds.RUC,
		},
	})
	if err != nil {
		return err
	}
	if !is2xx(resp.StatusCode) {
		return httpError(resp.StatusCode, resp.Body)
	}

	var decoded struct {
		CoResultado string `json:"coResultado"`
		DeResultado string `json:"deResultado"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return fmt.Errorf("pide: decoding RENIEC response: %w", err)
	}
	if err := reniecResultError(decoded.CoResultado, decoded.DeResultado); err != nil {
		return err
	}

	s.log.Info("credencial RENIEC actualizada")
	return nil
}

// reniecResultError maps a coResultado code to a typed error, or nil for
// success. An absent code is treated as success: some deployments omit it
// on healthy responses.
func reniecResultError(code, detail string) error {
	switch code {
	case "", reniecOK:
		return nil
	case reniecInvalidUser:
		return &AuthError{
			ServiceError: ServiceError{Message: "usuario o credenciales inválidas"},
			Code:         code,
		}
	case reniecExpiredCredential:
		return &AuthError{
			ServiceError: ServiceError{Message: "la credencial ha caducado"},
			Code:         code,
		}
	default:
		if detail == "" {
			detail = "consulta rechazada"
		}
		return &ServiceError{Message: fmt.Sprintf("RENIEC coResultado %s: %s", code, detail)}
	}
}
