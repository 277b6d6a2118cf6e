package pide

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{"bad credentials", "El usuario o password no es correcto", new(*AuthError)},
		{"unauthorized IP", "IP no autorizada", new(*AuthError)},
		{"no permission", "Usuario sin permiso para esta consulta", new(*PermissionError)},
		{"no results", "No existe resultados para la consulta", new(*NotFoundError)},
		{"undeterminable query", "No se pudo determinar el tipo de consulta", new(*NotFoundError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyMessage(tt.text)
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.want), "classified as %T", err)
		})
	}

	t.Run("unrecognized text is a generic ServiceError", func(t *testing.T) {
		err := classifyMessage("fallo interno del servicio registral")
		require.Error(t, err)

		var authErr *AuthError
		var notFound *NotFoundError
		var permission *PermissionError
		assert.False(t, errors.As(err, &authErr))
		assert.False(t, errors.As(err, &notFound))
		assert.False(t, errors.As(err, &permission))

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "fallo interno del servicio registral", svcErr.Message)
	})
}

func TestClassifyMessageOrdering(t *testing.T) {
	t.Run("credential rule beats no existe", func(t *testing.T) {
		// Both fragments present: the higher-priority credential rule
		// must win.
		err := classifyMessage("No existe resultados: el usuario o password no es correcto")
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("undeterminable query beats everything", func(t *testing.T) {
		err := classifyMessage("no se pudo determinar el tipo de consulta (usuario o password)")
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		err := classifyMessage("EL USUARIO O PASSWORD NO ES CORRECTO")
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("classification is idempotent", func(t *testing.T) {
		text := "No existe resultados para la placa ABC123"
		first := classifyMessage(text)
		second := classifyMessage(text)

		var nf1, nf2 *NotFoundError
		require.ErrorAs(t, first, &nf1)
		require.ErrorAs(t, second, &nf2)
		assert.Equal(t, first.Error(), second.Error())
	})
}

func TestClassifyResponse(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		err := classifyResponse(nil)
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Contains(t, svcErr.Message, "respuesta vacía")
	})

	t.Run("empty string", func(t *testing.T) {
		require.Error(t, classifyResponse("   "))
	})

	t.Run("empty object", func(t *testing.T) {
		require.Error(t, classifyResponse(map[string]any{}))
	})

	t.Run("nested error message", func(t *testing.T) {
		resp := map[string]any{
			"Respuesta": map[string]any{
				"Error": "No existe resultados para la consulta",
			},
		}
		var notFound *NotFoundError
		require.ErrorAs(t, classifyResponse(resp), &notFound)
	})

	t.Run("nested unrecognized error message", func(t *testing.T) {
		resp := map[string]any{
			"Respuesta": map[string]any{
				"Error": "fallo interno",
			},
		}
		err := classifyResponse(resp)
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "fallo interno", svcErr.Message)
	})

	t.Run("fragment buried in stringified payload", func(t *testing.T) {
		resp := map[string]any{"detalle": "IP no autorizada para este servicio"}
		var authErr *AuthError
		require.ErrorAs(t, classifyResponse(resp), &authErr)
	})

	t.Run("healthy object", func(t *testing.T) {
		resp := map[string]any{"placa": "ABC123", "marca": "TOYOTA"}
		assert.NoError(t, classifyResponse(resp))
	})

	t.Run("healthy string", func(t *testing.T) {
		assert.NoError(t, classifyResponse("consulta exitosa"))
	})
}

func TestErrorStrings(t *testing.T) {
	t.Run("AuthError without code", func(t *testing.T) {
		err := &AuthError{ServiceError: ServiceError{Message: "usuario o password"}}
		assert.Equal(t, "pide: authentication failed: usuario o password", err.Error())
	})

	t.Run("AuthError with code", func(t *testing.T) {
		err := &AuthError{ServiceError: ServiceError{Message: "la credencial ha caducado"}, Code: "1002"}
		assert.Equal(t, "pide: authentication failed (1002): la credencial ha caducado", err.Error())
	})

	t.Run("ValidationError with field", func(t *testing.T) {
		err := &ValidationError{ServiceError: ServiceError{Message: "placa es obligatoria"}, Field: "plate"}
		assert.Contains(t, err.Error(), "validation error")
		assert.Contains(t, err.Error(), "plate")
	})

	t.Run("TransportError", func(t *testing.T) {
		err := &TransportError{StatusCode: 503, Message: "service unavailable"}
		assert.Equal(t, "pide: transport error 503: service unavailable", err.Error())
	})

	t.Run("NotFoundError", func(t *testing.T) {
		err := &NotFoundError{ServiceError{Message: "sin resultados"}}
		assert.Equal(t, "pide: not found: sin resultados", err.Error())
	})
}

func TestErrorsAsServiceError(t *testing.T) {
	// Every classified error must be detectable as the base ServiceError.
	tests := []struct {
		name string
		err  error
	}{
		{"AuthError", &AuthError{ServiceError: ServiceError{Message: "x"}}},
		{"PermissionError", &PermissionError{ServiceError{Message: "x"}}},
		{"NotFoundError", &NotFoundError{ServiceError{Message: "x"}}},
		{"ValidationError", &ValidationError{ServiceError: ServiceError{Message: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svcErr *ServiceError
			require.ErrorAs(t, tt.err, &svcErr, "should be detectable as ServiceError")
			assert.Equal(t, "x", svcErr.Message)
		})
	}
}
