package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// OpenAPIValidatorConfig controls request validation against the site's
// OpenAPI document.
type OpenAPIValidatorConfig struct {
	Enabled  bool
	SpecPath string
	// ValidateRequests rejects undocumented routes and malformed bodies.
	// When false, requests are only matched and passed through.
	ValidateRequests bool
	// SkipPaths are exempt, together with everything below them.
	SkipPaths []string
}

// DefaultOpenAPIValidatorConfig returns the configuration used by the site
// server. Validation is on outside production.
func DefaultOpenAPIValidatorConfig(production bool) *OpenAPIValidatorConfig {
	return &OpenAPIValidatorConfig{
		Enabled:          !production,
		SpecPath:         "artifacts/openapi.yaml",
		ValidateRequests: true,
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/ws",
		},
	}
}

func passThrough(next http.Handler) http.Handler { return next }

// loadOpenAPIRouter reads and validates the document at path.
func loadOpenAPIRouter(path string) (routers.Router, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return router, nil
}

// OpenAPIValidator rejects requests that do not match a documented operation.
// A missing or broken document disables validation rather than the server.
func OpenAPIValidator(config *OpenAPIValidatorConfig) func(next http.Handler) http.Handler {
	if config == nil {
		config = DefaultOpenAPIValidatorConfig(false)
	}
	if !config.Enabled {
		slog.Info("OpenAPI validation disabled")
		return passThrough
	}

	router, err := loadOpenAPIRouter(config.SpecPath)
	if err != nil {
		slog.Error("OpenAPI validation unavailable", slog.String("error", err.Error()))
		return passThrough
	}

	slog.Info("OpenAPI validation enabled",
		slog.Bool("validate_requests", config.ValidateRequests),
		slog.String("spec_path", config.SpecPath))

	options := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.ValidateRequests || shouldSkipPath(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				slog.Warn("undocumented route",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				writeValidationError(w, fmt.Sprintf("Path not found in OpenAPI spec: %s %s", r.Method, r.URL.Path))
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				slog.Warn("request validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				writeValidationError(w, "Request validation failed: "+err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// shouldSkipPath reports whether path is one of skipPaths or below one of
// them. "/" only ever matches itself.
func shouldSkipPath(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if path == skipPath {
			return true
		}
		prefix := strings.TrimSuffix(skipPath, "/")
		if prefix != "" && strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func writeValidationError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
