package api

import (
	"fmt"

	"github.com/JaimeStill/verdict/internal/classifiers"
	"github.com/JaimeStill/verdict/internal/config"
	"github.com/JaimeStill/verdict/internal/engine"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Classifiers classifiers.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	store, err := newStore(runtime)
	if err != nil {
		return nil, err
	}

	classifiersSystem := classifiers.New(
		store,
		engine.NewFactory(),
		runtime.Storage,
		runtime.Metrics,
		runtime.Logger,
		runtime.Classifiers,
	)

	return &Domain{
		Classifiers: classifiersSystem,
	}, nil
}

func newStore(runtime *Runtime) (classifiers.Store, error) {
	switch runtime.Driver {
	case config.DriverBadger:
		if runtime.KV == nil {
			return nil, fmt.Errorf("badger store selected but not initialized")
		}
		return classifiers.NewBadgerStore(runtime.KV.DB()), nil
	default:
		if runtime.Database == nil {
			return nil, fmt.Errorf("postgres store selected but not initialized")
		}
		return classifiers.NewPostgresStore(runtime.Database.Connection()), nil
	}
}
