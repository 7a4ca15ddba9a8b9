package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethpandaops/datasage/pkg/api/handlers"
	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/heat"
	"github.com/ethpandaops/datasage/pkg/profile"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *Config) *fiber.App {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	reg := registry.New(log, catalog.DataState{})
	tracker := heat.NewTracker(log, heat.NewMemoryCounter())

	app, err := NewApp(context.Background(), cfg, handlers.NewServer(reg, profile.NewRenderer(""), tracker, log), log)
	require.NoError(t, err)

	return app
}

func TestLoadOpenAPI(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, doc.Paths.Find("/metrics/{slug}/derive"))
	assert.NotNil(t, doc.Paths.Find("/dimension-tree"))
	assert.NotNil(t, doc.Paths.Find("/stats"))
}

func TestNewApp_ServesOpenAPI(t *testing.T) {
	app := newTestApp(t, &Config{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, openAPIDocument, body)
}

func TestErrorHandler_Shape(t *testing.T) {
	app := newTestApp(t, &Config{})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "not found", target: "/api/v1/metrics/missing", status: http.StatusNotFound},
		{name: "bad request", target: "/api/v1/metrics?direction=sideways", status: http.StatusBadRequest},
		{name: "unknown route", target: "/api/v1/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.status, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
				Code  int    `json:"code"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "enabled with addr", config: Config{Enabled: true, Addr: ":8080"}},
		{name: "disabled without addr", config: Config{}},
		{name: "enabled without addr", config: Config{Enabled: true}, wantErr: ErrAPIAddrRequired},
		{name: "explicit origins", config: Config{Enabled: true, Addr: ":8080", CORSOrigins: []string{"https://catalog.example"}}},
		{name: "blank origin", config: Config{CORSOrigins: []string{""}}, wantErr: ErrInvalidCORSOrigin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestNewApp_CORS(t *testing.T) {
	tests := []struct {
		name     string
		origins  []string
		origin   string
		expected string
	}{
		{name: "any origin by default", origin: "https://a.example", expected: "*"},
		{name: "listed origin", origins: []string{"https://a.example"}, origin: "https://a.example", expected: "https://a.example"},
		{name: "unlisted origin", origins: []string{"https://a.example"}, origin: "https://b.example", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &Config{CORSOrigins: tt.origins})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			req.Header.Set("Origin", tt.origin)

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.expected, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestService_Disabled(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewService(&Config{Enabled: false}, nil, log)
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop())
}
