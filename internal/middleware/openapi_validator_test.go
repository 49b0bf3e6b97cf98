package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPISpecPath = "../../artifacts/openapi.yaml"

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(openAPISpecPath)
	require.NoError(t, err, "Failed to load OpenAPI document")
	require.NoError(t, doc.Validate(loader.Context), "OpenAPI document validation failed")
	return doc
}

type documentedRoute struct {
	method    string
	path      string
	protected bool
}

// siteRoutes mirrors the router in internal/handler.
var siteRoutes = []documentedRoute{
	{"GET", "/api/services", false},
	{"GET", "/api/saas-products", false},
	{"GET", "/api/about", false},
	{"GET", "/api/tracking-config", false},
	{"POST", "/api/contact", false},
	{"POST", "/api/chat/message", false},
	{"POST", "/api/admin/login", false},
	{"POST", "/api/admin/google-login", false},
	{"POST", "/api/admin/logout", true},
	{"GET", "/api/admin/me", true},
	{"POST", "/api/admin/change-password", true},
	{"POST", "/api/admin/services", true},
	{"PUT", "/api/admin/services/{id}", true},
	{"DELETE", "/api/admin/services/{id}", true},
	{"POST", "/api/admin/saas-products", true},
	{"PUT", "/api/admin/saas-products/{id}", true},
	{"DELETE", "/api/admin/saas-products/{id}", true},
	{"GET", "/api/admin/contacts", true},
	{"GET", "/api/admin/contacts/export/{format}", true},
	{"GET", "/api/admin/contacts/{id}", true},
	{"PUT", "/api/admin/contacts/{id}", true},
	{"DELETE", "/api/admin/contacts/{id}", true},
	{"PUT", "/api/admin/about", true},
	{"GET", "/api/admin/social-integrations", true},
	{"PUT", "/api/admin/social-integrations", true},
	{"GET", "/api/admin/chat-sessions", true},
	{"GET", "/api/admin/chat-sessions/{id}", true},
	{"DELETE", "/api/admin/chat-sessions/{id}", true},
	{"GET", "/api/admin/meeting-requests", true},
	{"PUT", "/api/admin/meeting-requests/{id}/status", true},
	{"DELETE", "/api/admin/meeting-requests/{id}", true},
	{"GET", "/health", false},
	{"GET", "/health/ready", false},
}

func TestOpenAPISpecIsValid(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	assert.Equal(t, "MITA ICT Site API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotEmpty(t, doc.Servers, "At least one server should be defined")
}

func TestAllRoutesAreDocumentedInOpenAPI(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	for _, route := range siteRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem, "Path not found in OpenAPI document: %s", route.path)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation, "Operation not found: %s %s", route.method, route.path)

			assert.NotEmpty(t, operation.OperationID, "OperationID should be set")
			assert.NotEmpty(t, operation.Tags, "Tags should be set")
			assert.NotZero(t, operation.Responses.Len(), "Responses should be defined")

			if !route.protected {
				if operation.Security != nil {
					assert.Empty(t, *operation.Security, "Public route should not require auth")
				}
				return
			}
			require.NotNil(t, operation.Security, "Protected route should require auth")
			hasBearer := false
			for _, req := range *operation.Security {
				if _, ok := req["bearerAuth"]; ok {
					hasBearer = true
				}
			}
			assert.True(t, hasBearer, "Protected route should use bearerAuth")
		})
	}
}

func TestOpenAPIBearerScheme(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	scheme := doc.Components.SecuritySchemes["bearerAuth"]
	require.NotNil(t, scheme)
	assert.Equal(t, "http", scheme.Value.Type)
	assert.Equal(t, "bearer", scheme.Value.Scheme)
}

func TestShouldSkipPath(t *testing.T) {
	skipPaths := []string{"/health", "/metrics", "/ws", "/"}

	tests := []struct {
		path     string
		expected bool
	}{
		{"/health", true},
		{"/health/ready", true},
		{"/healthz", false},
		{"/metrics", true},
		{"/ws/admin/feed", true},
		{"/", true},
		{"/api/services", false},
		{"/api/admin/login", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldSkipPath(tt.path, skipPaths))
		})
	}
}

func TestDefaultOpenAPIValidatorConfig(t *testing.T) {
	dev := DefaultOpenAPIValidatorConfig(false)
	assert.True(t, dev.Enabled)
	assert.Equal(t, "artifacts/openapi.yaml", dev.SpecPath)
	assert.True(t, dev.ValidateRequests)
	assert.Contains(t, strings.Join(dev.SkipPaths, ","), "/metrics")

	assert.False(t, DefaultOpenAPIValidatorConfig(true).Enabled)
}

func TestOpenAPIMiddlewareFallsBackToNoop(t *testing.T) {
	for name, cfg := range map[string]*OpenAPIValidatorConfig{
		"missing file": {Enabled: true, SpecPath: "/nonexistent/spec.yaml", ValidateRequests: true},
		"disabled":     {Enabled: false},
	} {
		t.Run(name, func(t *testing.T) {
			handler := OpenAPIValidator(cfg)(okHandler())
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/undocumented", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestOpenAPIValidator_MatchOnlyPassesUndocumented(t *testing.T) {
	cfg := DefaultOpenAPIValidatorConfig(false)
	cfg.SpecPath = openAPISpecPath
	cfg.ValidateRequests = false
	handler := OpenAPIValidator(cfg)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadOpenAPIRouter(t *testing.T) {
	router, err := loadOpenAPIRouter(openAPISpecPath)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	route, _, err := router.FindRoute(req)
	require.NoError(t, err)
	assert.Equal(t, "/api/services", route.Path)

	_, err = loadOpenAPIRouter("/nonexistent/spec.yaml")
	assert.ErrorContains(t, err, "/nonexistent/spec.yaml")
}

func newValidatingHandler(t *testing.T, next http.Handler) http.Handler {
	t.Helper()
	cfg := DefaultOpenAPIValidatorConfig(false)
	cfg.SpecPath = openAPISpecPath
	return OpenAPIValidator(cfg)(next)
}

func TestOpenAPIValidator_Requests(t *testing.T) {
	var gotBody string
	handler := newValidatingHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"valid chat", http.MethodPost, "/api/chat/message", `{"message":"hello"}`, http.StatusOK},
		{"chat without message", http.MethodPost, "/api/chat/message", `{"session_id":"x"}`, http.StatusBadRequest},
		{"contact missing phone", http.MethodPost, "/api/contact", `{"name":"A","email":"a@b.co","service":"Cloud"}`, http.StatusBadRequest},
		{"bad meeting status", http.MethodPut, "/api/admin/meeting-requests/m1/status", `{"status":"maybe"}`, http.StatusBadRequest},
		{"undocumented path", http.MethodGet, "/api/unknown", "", http.StatusBadRequest},
		{"skipped path", http.MethodGet, "/metrics", "", http.StatusOK},
		{"public get", http.MethodGet, "/api/services", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotBody = ""
			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusOK && tt.body != "" {
				assert.Equal(t, tt.body, gotBody, "validated body must still reach the handler")
			}
		})
	}
}
