package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/verdict/pkg/auth"
	"github.com/JaimeStill/verdict/pkg/formatting"
	"github.com/JaimeStill/verdict/pkg/middleware"
	"github.com/JaimeStill/verdict/pkg/openapi"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VERDICT_CORS_ENABLED",
	Origins:          "VERDICT_CORS_ORIGINS",
	AllowedMethods:   "VERDICT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VERDICT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "VERDICT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VERDICT_CORS_MAX_AGE",
}

var rateLimitEnv = &middleware.RateLimitEnv{
	RequestsPerSecond: "VERDICT_RATE_LIMIT_RPS",
	Burst:             "VERDICT_RATE_LIMIT_BURST",
}

var authEnv = &auth.Env{
	Enabled:  "VERDICT_AUTH_ENABLED",
	Issuer:   "VERDICT_AUTH_ISSUER",
	ClientID: "VERDICT_AUTH_CLIENT_ID",
	JWKSURL:  "VERDICT_AUTH_JWKS_URL",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "VERDICT_OPENAPI_TITLE",
	Description: "VERDICT_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, body limits, and the HTTP middleware settings.
type APIConfig struct {
	BasePath    string                     `toml:"base_path"`
	MaxBodySize string                     `toml:"max_body_size"`
	CORS        middleware.CORSConfig      `toml:"cors"`
	RateLimit   middleware.RateLimitConfig `toml:"rate_limit"`
	Auth        auth.Config                `toml:"auth"`
	OpenAPI     openapi.Config             `toml:"openapi"`
}

// MaxBodySizeBytes returns MaxBodySize as a byte count.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.RateLimit.Finalize(rateLimitEnv); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.RateLimit.Merge(&overlay.RateLimit)
	c.Auth.Merge(&overlay.Auth)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("VERDICT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("VERDICT_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with /: %q", c.BasePath)
	}
	if size, err := formatting.ParseBytes(c.MaxBodySize); err != nil || size <= 0 {
		return fmt.Errorf("invalid max_body_size %q", c.MaxBodySize)
	}
	return nil
}
