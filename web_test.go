package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanReadableSize(t *testing.T) {
	for in, want := range map[int64]string{
		0:             "0 B",
		999:           "999 B",
		1000:          "1.0 kB",
		1500:          "1.5 kB",
		2_500_000:     "2.5 MB",
		3_000_000_000: "3.0 GB",
	} {
		assert.Equal(t, want, humanReadableSize(in), "input %d", in)
	}
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1:5000", realIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7:5000", realIP(r))

	r.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "[2001:db8::1]:5000", realIP(r))

	r.Header.Set("CF-Connecting-IP", "not-an-ip")
	assert.Equal(t, "10.0.0.1:5000", realIP(r))
}

func TestSecurityHeaders(t *testing.T) {
	cfg := validConfig()

	w := httptest.NewRecorder()
	securityHeaders(cfg, w)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	cfg.tlsCert, cfg.tlsKey = "c", "k"
	w = httptest.NewRecorder()
	securityHeaders(cfg, w)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestVersionAndProfileRoutes(t *testing.T) {
	cfg := validConfig()
	cfg.prefix = "/feud"

	mux := httprouter.New()
	errs := make(chan error, 4)
	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))
	registerProfileHandlers(cfg, mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/feud/version")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "feud v"+releaseVersion+"\n", string(body))

	resp, err = http.Get(srv.URL + "/feud/pprof/cmdline")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, errs)
}
