package classifiers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdict/pkg/formatting"
	"github.com/JaimeStill/verdict/pkg/handlers"
	"github.com/JaimeStill/verdict/pkg/routes"
)

// Handler provides HTTP endpoints for classifier operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "classifiers"),
	}
}

// Routes returns the route group definition for classifier endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/classifiers",
		Tags:    []string{"Classifiers"},
		Schemas: schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: docs.List},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: docs.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: docs.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Rename, OpenAPI: docs.Rename},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: docs.Delete},
			{Method: "POST", Pattern: "/{id}/learn", Handler: h.Learn, OpenAPI: docs.Learn},
			{Method: "POST", Pattern: "/{id}/categorize", Handler: h.Categorize, OpenAPI: docs.Categorize},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/archives",
				Tags:   []string{"Archives"},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Archives, OpenAPI: docs.Archives},
					{Method: "POST", Pattern: "", Handler: h.Archive, OpenAPI: docs.Archive},
					{Method: "POST", Pattern: "/restore", Handler: h.RestoreArchive, OpenAPI: docs.RestoreArchive},
				},
			},
		},
	}
}

// List returns the id, creation time, and name of every classifier.
// Store failures are reported as 404 so clients treat them like an empty lookup.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondMessage(w, h.logger, http.StatusNotFound, CodeNotFound, ErrNotFound.Error(), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Create stores a new, untrained classifier. The body is optional.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := decode(r, &cmd); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, err)
		return
	}

	c, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Find returns the full classifier record including its snapshot.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Rename replaces the classifier's name.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var cmd RenameCommand
	if err := decode(r, &cmd); err != nil {
		h.fail(w, err)
		return
	}

	c, err := h.sys.Rename(r.Context(), id, cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Delete removes a classifier. Deleting an unknown id succeeds.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Learn trains the classifier with one labeled item or an array of them.
func (h *Handler) Learn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var batch Batch
	if err := decode(r, &batch); err != nil {
		h.fail(w, err)
		return
	}

	counts, err := h.sys.Learn(r.Context(), id, batch)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, counts)
}

// Categorize labels one text item or an array of them.
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var batch Batch
	if err := decode(r, &batch); err != nil {
		h.fail(w, err)
		return
	}

	results, err := h.sys.Categorize(r.Context(), id, batch)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, results)
}

// Archive uploads the current snapshot to blob storage.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	a, err := h.sys.Archive(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, a)
}

// Archives lists the stored snapshots of a classifier, newest first.
func (h *Handler) Archives(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	items, err := h.sys.Archives(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// RestoreArchive replaces the classifier's state with an archived snapshot.
func (h *Handler) RestoreArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	var cmd RestoreCommand
	if err := decode(r, &cmd); err != nil {
		h.fail(w, err)
		return
	}

	c, err := h.sys.RestoreArchive(r.Context(), id, cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// id parses the id path parameter. Malformed ids are reported like unknown ones.
func (h *Handler) id(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrNotFound, err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, code, message := MapError(err)
	handlers.RespondMessage(w, h.logger, status, code, message, err)
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		err = trailing(dec)
	}
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: limit is %s", ErrBodyTooLarge, formatting.FormatBytes(tooLarge.Limit, 0))
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	case errors.As(err, &typeErr) && typeErr.Field == "":
		return fmt.Errorf("%w: body must be an object", ErrValidation)
	case errors.As(err, &typeErr):
		return fmt.Errorf("%w: %s must be a %s", ErrValidation, typeErr.Field, typeErr.Type.Kind())
	default:
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
}

// trailing rejects anything but whitespace after the first JSON value.
func trailing(dec *json.Decoder) error {
	_, err := dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errors.New("unexpected data after JSON value")
	default:
		return err
	}
}
