package api

import (
	"net/http"

	"github.com/JaimeStill/verdict/pkg/openapi"
	"github.com/JaimeStill/verdict/pkg/routes"
)

func groups(domain *Domain) []routes.Group {
	return []routes.Group{
		domain.Classifiers.Handler().Routes(),
	}
}

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(mux, groups(domain)...)
}

func describeRoutes(spec *openapi.Spec, domain *Domain) {
	routes.Describe(spec, "", groups(domain)...)
}
