// Package auth holds the PIDE platform credentials shared by the REST and
// SOAP transports.
package auth

import "strings"

// Credentials holds the usuario/clave pair issued for the SUNARP services
// on the PIDE platform. The pair is set once at client construction and
// shared read-only by both transports.
type Credentials struct {
	Usuario string
	Clave   string
}

// Valid reports whether both fields are present.
func (c *Credentials) Valid() bool {
	return c != nil && strings.TrimSpace(c.Usuario) != "" && strings.TrimSpace(c.Clave) != ""
}

// Body returns the PIDE request object with the credentials merged ahead
// of the method-specific fields. A nil receiver yields the extra fields
// alone, for services that carry their own credential fields.
func (c *Credentials) Body(extra map[string]any) map[string]any {
	body := make(map[string]any, len(extra)+2)
	if c != nil {
		body["usuario"] = strings.TrimSpace(c.Usuario)
		body["clave"] = strings.TrimSpace(c.Clave)
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

// ReniecCredentials identify a RENIEC consultation user: the subscribing
// entity's RUC plus the operator's DNI and password.
type ReniecCredentials struct {
	RUC      string
	DNI      string
	Password string
}

// Valid reports whether all three fields are present.
func (c *ReniecCredentials) Valid() bool {
	return c != nil && c.RUC != "" && c.DNI != "" && c.Password != ""
}
