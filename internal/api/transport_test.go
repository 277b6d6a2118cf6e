package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmontalvo/go-pide/internal/auth"
)

func TestDoPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Consultar", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("out"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "go-pide/1.0", r.Header.Get("User-Agent"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]map[string]any
		require.NoError(t, json.Unmarshal(data, &payload))

		fields := payload["PIDE"]
		require.NotNil(t, fields, "body must be wrapped in a PIDE object")
		assert.Equal(t, "user", fields["usuario"])
		assert.Equal(t, "secret", fields["clave"])
		assert.Equal(t, "12345678", fields["nuDniConsulta"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, &auth.Credentials{Usuario: "user", Clave: "secret"}, nil)
	require.NoError(t, err)

	resp, err := transport.Do(context.Background(), &Request{
		Method:   http.MethodPost,
		Endpoint: "Consultar",
		Extra:    map[string]any{"nuDniConsulta": "12345678"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestDoGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("out"))
		assert.Equal(t, "user", q.Get("usuario"))
		assert.Equal(t, "secret", q.Get("clave"))
		assert.Equal(t, "ABC123", q.Get("placa"))

		data, _ := io.ReadAll(r.Body)
		assert.Empty(t, data, "GET carries no body")

		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, &auth.Credentials{Usuario: "user", Clave: "secret"}, nil)
	require.NoError(t, err)

	_, err = transport.Do(context.Background(), &Request{
		Method:   http.MethodGet,
		Endpoint: "Consultar",
		Extra:    map[string]any{"placa": "ABC123"},
	})
	require.NoError(t, err)
}

func TestDoWithoutCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]map[string]any
		require.NoError(t, json.Unmarshal(data, &payload))

		fields := payload["PIDE"]
		assert.NotContains(t, fields, "usuario")
		assert.Equal(t, "20100047218", fields["numero"])

		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, nil, nil)
	require.NoError(t, err)

	_, err = transport.Do(context.Background(), &Request{
		Method:   http.MethodPost,
		Endpoint: "Consultar",
		Extra:    map[string]any{"numero": "20100047218"},
	})
	require.NoError(t, err)
}

func TestNewTransport(t *testing.T) {
	t.Run("trims trailing slash", func(t *testing.T) {
		transport, err := NewTransport("https://example.com/Rest/SUNARP/", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/Rest/SUNARP", transport.BaseURL.String())
	})

	t.Run("defaults the HTTP client", func(t *testing.T) {
		transport, err := NewTransport("https://example.com", nil, nil)
		require.NoError(t, err)
		require.NotNil(t, transport.HTTPClient)
		assert.Equal(t, defaultHTTPTimeout, transport.HTTPClient.Timeout)
	})
}
