// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/verdict/internal/config"
	"github.com/JaimeStill/verdict/internal/infrastructure"
	"github.com/JaimeStill/verdict/pkg/auth"
	"github.com/JaimeStill/verdict/pkg/middleware"
	"github.com/JaimeStill/verdict/pkg/module"
	"github.com/JaimeStill/verdict/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	spec, err := openapi.MarshalJSON(BuildSpec(cfg, domain))
	if err != nil {
		return nil, fmt.Errorf("build openapi spec: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain)
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.RateLimit(&cfg.API.RateLimit, runtime.Logger))
	if cfg.API.Auth.Enabled {
		verifier := auth.NewVerifier(infra.Lifecycle.Context(), &cfg.API.Auth)
		m.Use(auth.Middleware(verifier, runtime.Logger))
	}
	m.Use(middleware.MaxBody(cfg.API.MaxBodySizeBytes()))

	return m, nil
}

// BuildSpec generates the OpenAPI document for every documented API route.
func BuildSpec(cfg *config.Config, domain *Domain) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	describeRoutes(spec, domain)
	return spec
}
