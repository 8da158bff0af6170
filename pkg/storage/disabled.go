package storage

import (
	"context"
	"io"

	"github.com/JaimeStill/verdict/pkg/lifecycle"
)

type disabled struct{}

// Disabled returns a System for deployments without blob storage.
// It is always ready and every data operation returns ErrDisabled.
func Disabled() System {
	return disabled{}
}

func (disabled) Enabled() bool                         { return false }
func (disabled) Ready() bool                           { return true }
func (disabled) Start(lc *lifecycle.Coordinator) error { return nil }

func (disabled) Upload(context.Context, string, io.Reader, string) error {
	return ErrDisabled
}

func (disabled) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, ErrDisabled
}

func (disabled) List(context.Context, string) ([]Blob, error) {
	return nil, ErrDisabled
}

func (disabled) Delete(context.Context, string) error {
	return ErrDisabled
}

func (disabled) Exists(context.Context, string) (bool, error) {
	return false, ErrDisabled
}
