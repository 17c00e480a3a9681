package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/cachefront"
	"github.com/unkn0wn-root/cachefront/codec"
	promhook "github.com/unkn0wn-root/cachefront/hooks/prom"
	"github.com/unkn0wn-root/cachefront/internal/product"
	"github.com/unkn0wn-root/cachefront/repository"
	"github.com/unkn0wn-root/cachefront/store/memory"
)

type fixture struct {
	srv  *httptest.Server
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	reg := prometheus.NewRegistry()
	hooks, err := promhook.New(reg, product.Namespace)
	require.NoError(t, err)

	c, err := cachefront.New[product.Product](cachefront.Options[product.Product]{
		Namespace: product.Namespace,
		Store:     memory.New(memory.Config{}),
		Codec:     codec.JSON[product.Product]{},
		Hooks:     hooks,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	repo, err := product.NewRepository(repository.NewMemoryBackend())
	require.NoError(t, err)

	h := NewHandler(product.NewService(c, logger), repo, reg, logger)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return fixture{srv: srv, logs: logs}
}

func (f fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func TestGetProductCachesLoads(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		resp, body := f.do(t, http.MethodGet, "/products/001", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, product.Product{ID: "001", Name: "example", Price: 1000}, decode[product.Product](t, body))
	}
	assert.Equal(t, 1, f.logs.FilterMessage("get product").Len())
}

func TestPutThenGetProduct(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPut, "/products/P003", `{"name":"asal","price":100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/products/P003", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, product.Product{ID: "P003", Name: "asal", Price: 100}, decode[product.Product](t, body))
	assert.Zero(t, f.logs.FilterMessage("get product").Len())
}

func TestDeleteProductForcesReload(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/products/004", "")
	resp, _ := f.do(t, http.MethodDelete, "/products/004", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	f.do(t, http.MethodGet, "/products/004", "")

	assert.Equal(t, 2, f.logs.FilterMessage("get product").Len())
}

func TestBadBody(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodPut, "/products/P003", `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[ErrorResponse](t, body).Code)
}

func TestInvalidKeyIsBadRequest(t *testing.T) {
	f := newFixture(t)
	// %09 decodes to a tab, which keys may not contain
	resp, body := f.do(t, http.MethodGet, "/products/a%09b", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_KEY", decode[ErrorResponse](t, body).Code)
}

func TestRepositoryRoutes(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/repo/products/1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPut, "/repo/products/1", `{"name":"Laptop","price":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/repo/products/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, product.Product{ID: "1", Name: "Laptop", Price: 1000}, decode[product.Product](t, body))

	resp, body = f.do(t, http.MethodGet, "/repo/products/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]product.Product](t, body), 1)

	resp, _ = f.do(t, http.MethodDelete, "/repo/products/1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/repo/products/1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/products/001", "")
	f.do(t, http.MethodGet, "/products/001", "")

	resp, body := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `cachefront_requests_total{namespace="products",result="hit"} 1`)
	assert.Contains(t, string(body), `cachefront_requests_total{namespace="products",result="miss"} 1`)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, body)["status"])
}
