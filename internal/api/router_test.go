package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-theory/internal/arranger"
	"github.com/Conceptual-Machines/magda-theory/internal/config"
	"github.com/Conceptual-Machines/magda-theory/internal/services"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

func newTestRouter(authMode string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Environment: "test", AuthMode: authMode, TempoBPM: 120, DefaultVelocity: 100}
	service := services.NewNotationService(theory.New(), nil)
	return SetupRouter(cfg, service, arranger.New(service, cfg.DefaultVelocity), nil, "test")
}

func serve(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterNoAuth(t *testing.T) {
	router := newTestRouter("none")

	w := serve(router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(router, http.MethodPost, "/api/v1/chords", `{"name": "Am7"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"notes": [69, 72, 76, 79]}`, w.Body.String())

	w = serve(router, http.MethodPut, "/api/v1/origin", `{"octave": 5}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/origin", "", nil)
	assert.JSONEq(t, `{"reference_octave": 5, "shift": 0}`, w.Body.String())
}

func TestRouterGatewayMode(t *testing.T) {
	router := newTestRouter("gateway")
	user := map[string]string{"X-User-ID": "42", "X-User-Role": "user"}
	admin := map[string]string{"X-User-ID": "1", "X-User-Role": "admin"}

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		headers  map[string]string
		expected int
	}{
		{name: "resolve without gateway headers", method: http.MethodPost, path: "/api/v1/notes", body: `{"notes": ["C"]}`, expected: http.StatusUnauthorized},
		{name: "resolve as user", method: http.MethodPost, path: "/api/v1/notes", body: `{"notes": ["C"]}`, headers: user, expected: http.StatusOK},
		{name: "list scales as user", method: http.MethodGet, path: "/api/v1/scales", headers: user, expected: http.StatusOK},
		{name: "add scale as user", method: http.MethodPost, path: "/api/v1/scales", body: `{"name": "P", "degrees": [1, 2, 3, 5, 6]}`, headers: user, expected: http.StatusForbidden},
		{name: "add scale as admin", method: http.MethodPost, path: "/api/v1/scales", body: `{"name": "P", "degrees": [1, 2, 3, 5, 6]}`, headers: admin, expected: http.StatusCreated},
		{name: "add chord type anonymously", method: http.MethodPost, path: "/api/v1/chord-types", body: `{"type": "x", "degrees": [1]}`, expected: http.StatusUnauthorized},
		{name: "move origin as admin", method: http.MethodPut, path: "/api/v1/origin", body: `{"octave": 3}`, headers: admin, expected: http.StatusOK},
		{name: "health stays public", method: http.MethodGet, path: "/health", expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.expected, w.Code, w.Body.String())
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter("none")

	w := serve(router, http.MethodOptions, "/api/v1/chords", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}
