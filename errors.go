package pide

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common configuration failures.
var (
	ErrNoCredentials = errors.New("pide: no credentials configured")
	ErrNoBaseURL     = errors.New("pide: no base URL configured")
)

// ServiceError is the generic registry error: the upstream reported a
// failure whose text matched no known classification. It is also the base
// of every classified error, so errors.As against *ServiceError catches
// the whole taxonomy.
type ServiceError struct {
	// Message is the upstream text, verbatim.
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("pide: %s", e.Message)
}

// AuthError indicates rejected credentials or an unauthorized source IP.
type AuthError struct {
	ServiceError

	// Code is the upstream result code, when one exists (e.g. the RENIEC
	// coResultado values "1001" and "1002").
	Code string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("pide: authentication failed (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("pide: authentication failed: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *ServiceError.
func (e *AuthError) As(target any) bool {
	if t, ok := target.(**ServiceError); ok {
		*t = &e.ServiceError
		return true
	}
	return false
}

// PermissionError indicates the user authenticated but is not entitled to
// the requested operation.
type PermissionError struct {
	ServiceError
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("pide: permission denied: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *ServiceError.
func (e *PermissionError) As(target any) bool {
	if t, ok := target.(**ServiceError); ok {
		*t = &e.ServiceError
		return true
	}
	return false
}

// NotFoundError indicates no matching record: the queried asset is not
// registered, the query intent could not be determined upstream, or the
// office directory came back empty.
type NotFoundError struct {
	ServiceError
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pide: not found: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *ServiceError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**ServiceError); ok {
		*t = &e.ServiceError
		return true
	}
	return false
}

// ValidationError indicates caller-supplied arguments failed a local
// precondition check. It is always raised before any network call.
type ValidationError struct {
	ServiceError

	// Field names the offending argument.
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("pide: validation error: %s (field: %s)", e.Message, e.Field)
	}
	return fmt.Sprintf("pide: validation error: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *ServiceError.
func (e *ValidationError) As(target any) bool {
	if t, ok := target.(**ServiceError); ok {
		*t = &e.ServiceError
		return true
	}
	return false
}

// TransportError indicates a non-2xx HTTP status or connection-level
// failure. It is surfaced as-is, never reclassified by the message table.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pide: transport error %d: %s", e.StatusCode, e.Message)
}

// httpError converts a non-2xx upstream response into a TransportError.
func httpError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &TransportError{StatusCode: status, Message: msg}
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

// The service signals failure through human-language substrings embedded
// in otherwise structured responses; there are no machine-readable error
// fields. classRules is the single source of truth for interpreting that
// text, matched case-insensitively in order, first match wins. The order
// is load-bearing: the undeterminable-query message outranks everything,
// and credential failures outrank the broad "no existe".
type classRule struct {
	fragment string
	build    func(msg string) error
}

var classRules = []classRule{
	{"no se pudo determinar el tipo de consulta", func(string) error {
		return &NotFoundError{ServiceError{Message: "no se pudo determinar el tipo de consulta"}}
	}},
	{"usuario o password", func(msg string) error {
		return &AuthError{ServiceError: ServiceError{Message: msg}}
	}},
	{"ip no autorizada", func(msg string) error {
		return &AuthError{ServiceError: ServiceError{Message: msg}}
	}},
	{"permiso", func(msg string) error {
		return &PermissionError{ServiceError{Message: msg}}
	}},
	{"no existe", func(msg string) error {
		return &NotFoundError{ServiceError{Message: msg}}
	}},
}

// matchFragments returns the typed error for the first rule whose
// fragment occurs in text, or nil when no rule matches.
func matchFragments(text string) error {
	lower := strings.ToLower(text)
	for _, rule := range classRules {
		if strings.Contains(lower, rule.fragment) {
			return rule.build(strings.TrimSpace(text))
		}
	}
	return nil
}

// classifyMessage maps text known to be an error message to its typed
// error. Unrecognized text becomes a generic ServiceError carrying it
// verbatim.
func classifyMessage(msg string) error {
	if err := matchFragments(msg); err != nil {
		return err
	}
	return &ServiceError{Message: strings.TrimSpace(msg)}
}

// classifyResponse inspects a raw response and returns the typed error it
// represents, or nil for a healthy response. Two shapes are recognized:
// a decoded JSON object with a nested Respuesta.Error message, and plain
// text (a raw SOAP string result, or a stringified payload).
func classifyResponse(v any) error {
	switch resp := v.(type) {
	case nil:
		return &ServiceError{Message: "respuesta vacía del servicio"}

	case string:
		if strings.TrimSpace(resp) == "" {
			return &ServiceError{Message: "respuesta vacía del servicio"}
		}
		return matchFragments(resp)

	case map[string]any:
		if len(resp) == 0 {
			return &ServiceError{Message: "respuesta vacía del servicio"}
		}
		if nested, ok := resp["Respuesta"].(map[string]any); ok {
			if msg, ok := nested["Error"].(string); ok {
				return classifyMessage(msg)
			}
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			return nil
		}
		return matchFragments(string(raw))
	}
	return nil
}
