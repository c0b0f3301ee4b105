package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halstead/image-delivery-backend/interfaces"
)

func newTestServer(t *testing.T) (*Server, *testEnv) {
	t.Helper()

	env := setupTestEnvironment(t)
	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      testLogger(),
		DrainDuration:            5 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
	}, env.handler)
	require.NoError(t, err)
	return srv, env
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	code, body := getBody(t, ts.URL+"/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "alive")

	code, body = getBody(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ready")
}

func TestServerDrainCycle(t *testing.T) {
	srv, env := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	env.index.On("ImageMetadata", mock.Anything, mock.Anything).
		Return(nil, interfaces.ErrImageNotFound).Maybe()

	code, body := getBody(t, ts.URL+"/drain")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "draining")

	code, _ = getBody(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// Image routes refuse work while draining
	code, _ = getBody(t, ts.URL+"/v1/images/any")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, body = getBody(t, ts.URL+"/drain")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "already draining")

	code, body = getBody(t, ts.URL+"/undrain")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ready")

	code, _ = getBody(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusOK, code)

	code, body = getBody(t, ts.URL+"/undrain")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "already ready")
}

func TestServerServesImages(t *testing.T) {
	srv, env := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	data := []byte("routed image payload")
	path := env.writeImageFile(t, "routed.img", data)
	desc := &interfaces.ImageDescriptor{
		ID:        "img-route",
		Name:      "Routed",
		Locations: []interfaces.ImageLocation{{URI: "file://" + path, Size: int64(len(data))}},
	}
	env.index.On("ImageMetadata", mock.Anything, "img-route").Return(desc, nil)

	code, body := getBody(t, ts.URL+"/v1/images/img-route")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(data), body)

	resp, err := http.Head(ts.URL + "/v1/images/img-route")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "img-route", resp.Header.Get(ImageIDHeader))
	assert.Equal(t, "Routed", resp.Header.Get(ImageNameHeader))
}

func TestServerUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	code, _ := getBody(t, ts.URL+"/v2/images/whatever")
	assert.Equal(t, http.StatusNotFound, code)
}
