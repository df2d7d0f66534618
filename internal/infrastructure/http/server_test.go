package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, _ := newRecordingServer(t)
	return s
}

// newRecordingServer builds a server whose spans are captured by the
// returned recorder.
func newRecordingServer(t *testing.T) (*Server, *tracetest.SpanRecorder) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", DurationMSMetric: true},
		OTLP:   config.OTLPConfig{ServiceName: "products-api-test", Environment: "test"},
		Log:    config.LogConfig{Level: slog.LevelError},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}

	telem, err := telemetry.NewNoOpTelemetry(&cfg.OTLP, &cfg.Log)
	require.NoError(t, err)
	recorder := tracetest.NewSpanRecorder()
	telem.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := telem.TracerProvider.Tracer("products-api")
	repo := memory.NewProductRepository(tracer, logger)
	svc := service.NewProductService(repo, tracer, telem.MeterProvider.Meter("products-api"), logger)

	return NewServer(cfg, handler.NewProductHandler(svc, logger), logger, telem), recorder
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(method, path, reader))
	return rr
}

func TestHealth(t *testing.T) {
	rr := serve(newTestServer(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestRoot(t *testing.T) {
	rr := serve(newTestServer(t), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Product Management API")
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)

	rr := serve(s, http.MethodPost, "/api/products", `{"name":"Widget","price":10.99,"stock":5}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created["id"].(string)
	assert.ElementsMatch(t,
		[]string{"id", "name", "price", "stock", "created_at", "updated_at"},
		keys(created),
	)

	rr = serve(s, http.MethodPatch, "/api/products/"+id+"/stock", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"stock":8`)

	rr = serve(s, http.MethodPatch, "/api/products/"+id+"/stock", `{"quantity":-20}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(s, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), id)
	assert.Contains(t, rr.Body.String(), `"stock":8`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rr := serve(s, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(s, http.MethodDelete, "/api/products", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	serve(s, http.MethodPost, "/api/products", `{"name":"Widget","price":1,"stock":1}`)

	rr := serve(s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "products_created_total")
	assert.Contains(t, body, "products_operations_total")
	assert.Contains(t, body, "http_server_request_duration_ms")
	assert.Contains(t, body, "go_goroutines")
}

func TestServerSpanIsNamedAfterRoute(t *testing.T) {
	s, recorder := newRecordingServer(t)

	rr := serve(s, http.MethodPost, "/api/products", `{"name":"Widget","price":1,"stock":1}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	id := created["id"].(string)

	for range 3 {
		serve(s, http.MethodGet, "/api/products/"+id, "")
	}
	serve(s, http.MethodGet, "/api/products/"+uuid.NewString(), "")

	var routeSpans int
	for _, span := range recorder.Ended() {
		if span.SpanKind() != trace.SpanKindServer {
			continue
		}
		assert.NotContains(t, span.Name(), id)
		if span.Name() == "GET /api/products/{id}" {
			routeSpans++
		}
	}
	assert.Equal(t, 4, routeSpans)
}

func TestUnmatchedRequestSpanUsesMethod(t *testing.T) {
	s, recorder := newRecordingServer(t)

	serve(s, http.MethodGet, "/no/such/path", "")

	var names []string
	for _, span := range recorder.Ended() {
		if span.SpanKind() == trace.SpanKindServer {
			names = append(names, span.Name())
		}
	}
	assert.Equal(t, []string{"GET"}, names)
}

func TestRequestMetricsCarryRoutePattern(t *testing.T) {
	s := newTestServer(t)
	ids := make([]string, 0, 3)
	for range 3 {
		id := uuid.NewString()
		ids = append(ids, id)
		serve(s, http.MethodGet, "/api/products/"+id, "")
	}

	body := serve(s, http.MethodGet, "/metrics", "").Body.String()

	assert.Contains(t, body, `http_route="/api/products/{id}"`)
	for _, id := range ids {
		assert.NotContains(t, body, id)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.Shutdown(context.Background()))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
