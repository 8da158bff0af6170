package classifiers

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verdict/internal/engine"
)

// Domain errors for classifier operations.
var (
	ErrNotFound        = errors.New("classifier not found")
	ErrDuplicate       = errors.New("classifier already exists")
	ErrNotTrained      = errors.New("classifier has no training documents")
	ErrValidation      = errors.New("invalid properties")
	ErrMalformedBody   = errors.New("malformed JSON body")
	ErrBodyTooLarge    = errors.New("request body too large")
	ErrPersistFault    = errors.New("classifier could not be persisted")
	ErrConflict        = errors.New("classifier was modified concurrently")
	ErrStorageDisabled = errors.New("archive storage is not configured")
	ErrArchiveNotFound = errors.New("archive not found")

	ErrEngineFault  = engine.ErrEngineFault
	ErrCorruptState = engine.ErrCorruptState
)

// Application error codes returned in the {code, error} body.
const (
	CodeEngineFault     = 100
	CodeNotTrained      = 101
	CodeCorruptState    = 102
	CodeNotFound        = 200
	CodePersistFault    = 201
	CodeConflict        = 202
	CodeStorageDisabled = 203
	CodeMalformedBody   = 300
	CodeValidation      = 301
	CodeBodyTooLarge    = 302
)

type fault struct {
	err    error
	status int
	code   int
	public bool
}

// Client errors keep their full message since it names the offending item.
var faults = []fault{
	{ErrNotFound, http.StatusNotFound, CodeNotFound, false},
	{ErrArchiveNotFound, http.StatusNotFound, CodeNotFound, false},
	{ErrValidation, http.StatusBadRequest, CodeValidation, true},
	{ErrMalformedBody, http.StatusBadRequest, CodeMalformedBody, true},
	{ErrBodyTooLarge, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, false},
	{ErrNotTrained, http.StatusBadRequest, CodeNotTrained, false},
	{ErrConflict, http.StatusConflict, CodeConflict, false},
	{ErrStorageDisabled, http.StatusServiceUnavailable, CodeStorageDisabled, false},
	{ErrCorruptState, http.StatusInternalServerError, CodeCorruptState, false},
	{ErrEngineFault, http.StatusInternalServerError, CodeEngineFault, false},
	{ErrPersistFault, http.StatusInternalServerError, CodePersistFault, false},
}

// MapError maps classifier domain errors to an HTTP status, an application code,
// and the message that is safe to return to the client.
func MapError(err error) (status, code int, message string) {
	for _, f := range faults {
		if errors.Is(err, f.err) {
			if f.public {
				return f.status, f.code, err.Error()
			}
			return f.status, f.code, f.err.Error()
		}
	}
	return http.StatusInternalServerError, CodePersistFault, ErrPersistFault.Error()
}

// MapHTTPStatus maps classifier domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	status, _, _ := MapError(err)
	return status
}
