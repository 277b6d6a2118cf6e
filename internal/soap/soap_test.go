package soap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmontalvo/go-pide/internal/auth"
)

func testCredentials() *auth.Credentials {
	return &auth.Credentials{Usuario: "user", Clave: "secret"}
}

func TestDoEnvelope(t *testing.T) {
	var captured string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)

		assert.Equal(t, "text/xml; charset=utf-8", r.Header.Get("Content-Type"))
		assert.Equal(t, `""`, r.Header.Get("SOAPAction"))
		assert.Equal(t, "go-pide/1.0", r.Header.Get("User-Agent"))

		w.Write([]byte(`<Envelope><Body><response><return>ok</return></response></Body></Envelope>`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, testCredentials(), nil)
	require.NoError(t, err)

	resp, err := transport.Do(context.Background(), "getOficinas",
		Param{Name: "zona", Value: "09"},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, strings.HasPrefix(captured, `<?xml`))
	assert.Contains(t, captured, `<ser:getOficinas>`)
	assert.Contains(t, captured, `xmlns:ser="http://app.wssunarp.pide.gob.pe/"`)
	assert.Contains(t, captured, `<usuario>user</usuario>`)
	assert.Contains(t, captured, `<clave>secret</clave>`)
	assert.Contains(t, captured, `<zona>09</zona>`)

	// Credentials come before the operation parameters.
	assert.Less(t, strings.Index(captured, "<usuario>"), strings.Index(captured, "<zona>"))
	assert.Less(t, strings.Index(captured, "<clave>"), strings.Index(captured, "<zona>"))
}

func TestDoSessionCookies(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123"})
		} else {
			cookie, err := r.Cookie("JSESSIONID")
			require.NoError(t, err, "session cookie should survive across calls")
			assert.Equal(t, "abc123", cookie.Value)
		}
		w.Write([]byte(`<Envelope><Body><return>ok</return></Body></Envelope>`))
	}))
	defer server.Close()

	transport, err := NewTransport(server.URL, testCredentials(), nil)
	require.NoError(t, err)

	_, err = transport.Do(context.Background(), "getOficinas")
	require.NoError(t, err)
	_, err = transport.Do(context.Background(), "getOficinas")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewTransport(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		_, err := NewTransport("https://example.com/service", nil, nil)
		assert.Error(t, err)
	})

	t.Run("defaults the HTTP client", func(t *testing.T) {
		transport, err := NewTransport("https://example.com/service", testCredentials(), nil)
		require.NoError(t, err)
		assert.NotNil(t, transport.base)
		assert.Equal(t, defaultHTTPTimeout, transport.base.Timeout)
	})
}

func TestFirstReturn(t *testing.T) {
	t.Run("plain string result", func(t *testing.T) {
		doc := []byte(`<Envelope><Body><response><return>  No existe resultados  </return></response></Body></Envelope>`)
		ret, err := FirstReturn(doc)
		require.NoError(t, err)
		require.NotNil(t, ret)
		assert.Equal(t, "No existe resultados", ret.Text)
		assert.False(t, ret.HasChildren)
	})

	t.Run("structured result", func(t *testing.T) {
		doc := []byte(`<Envelope><Body><response><return><oficina><codOficina>01</codOficina></oficina></return></response></Body></Envelope>`)
		ret, err := FirstReturn(doc)
		require.NoError(t, err)
		require.NotNil(t, ret)
		assert.True(t, ret.HasChildren)
	})

	t.Run("no return element", func(t *testing.T) {
		ret, err := FirstReturn([]byte(`<Envelope><Body/></Envelope>`))
		require.NoError(t, err)
		assert.Nil(t, ret)
	})

	t.Run("empty return element", func(t *testing.T) {
		ret, err := FirstReturn([]byte(`<Envelope><Body><return></return></Body></Envelope>`))
		require.NoError(t, err)
		require.NotNil(t, ret)
		assert.Empty(t, ret.Text)
		assert.False(t, ret.HasChildren)
	})
}

func TestFind(t *testing.T) {
	type office struct {
		Code string `xml:"codOficina"`
		Name string `xml:"descripcion"`
	}

	t.Run("collects every match regardless of prefix", func(t *testing.T) {
		doc := []byte(`<ns2:Envelope xmlns:ns2="urn:x"><Body><return>` +
			`<oficina><codOficina>01</codOficina><descripcion>LIMA</descripcion></oficina>` +
			`<oficina><codOficina>02</codOficina><descripcion>CALLAO</descripcion></oficina>` +
			`</return></Body></ns2:Envelope>`)

		offices, err := Find[office](doc, "oficina")
		require.NoError(t, err)
		require.Len(t, offices, 2)
		assert.Equal(t, "LIMA", offices[0].Name)
		assert.Equal(t, "02", offices[1].Code)
	})

	t.Run("no matches", func(t *testing.T) {
		offices, err := Find[office]([]byte(`<Envelope><Body/></Envelope>`), "oficina")
		require.NoError(t, err)
		assert.Empty(t, offices)
	})

	t.Run("legacy charset declaration", func(t *testing.T) {
		doc := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><Envelope><Body><oficina><codOficina>01</codOficina><descripcion>A`),
			0xD1, // latin-1 Ñ
		)
		doc = append(doc, []byte(`O NUEVO</descripcion></oficina></Body></Envelope>`)...)

		offices, err := Find[office](doc, "oficina")
		require.NoError(t, err)
		require.Len(t, offices, 1)
		assert.Equal(t, "AÑO NUEVO", offices[0].Name)
	})
}
