package main

import (
	"io"
	"log/slog"

	"github.com/JaimeStill/verdict/internal/api"
	"github.com/JaimeStill/verdict/internal/config"
	"github.com/JaimeStill/verdict/internal/infrastructure"
	"github.com/JaimeStill/verdict/pkg/openapi"
)

// writeSpec generates the OpenAPI document without starting any backend.
// The badger store runs in memory so no files are touched.
func writeSpec(cfg *config.Config, filename string) error {
	cfg.Store.Driver = config.DriverBadger
	cfg.Badger.InMemory = true

	infra, err := infrastructure.NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	defer infra.KV.Close()

	domain, err := api.NewDomain(api.NewRuntime(cfg, infra))
	if err != nil {
		return err
	}

	return openapi.WriteJSON(api.BuildSpec(cfg, domain), filename)
}
