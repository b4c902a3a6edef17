package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/LegalDragon/Pickleball-Community-sub007/middleware"
	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/LegalDragon/Pickleball-Community-sub007/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]any

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readOptionalJSON accepts an empty body and leaves dst untouched.
func readOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return readJSON(w, r, dst)
}

func writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// responder is embedded by every handler for logging and error bodies.
type responder struct {
	logger *slog.Logger
}

func (h responder) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := writeJSON(w, status, data, nil); err != nil {
		h.logger.Error("Failed to write response", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

func (h responder) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.respond(w, r, status, jsonResponse{"error": errorBody{Code: code, Message: message}})
}

func (h responder) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Internal server error", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	h.errorResponse(w, r, http.StatusInternalServerError, "internal_error", "the server encountered a problem and could not process your request")
}

func (h responder) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

func (h responder) unauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	h.errorResponse(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindCapacity, services.KindStateConflict:
		return http.StatusConflict
	case services.KindAuthorization:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// mapServiceErrorToHTTP turns a service error into a response.
func (h responder) mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.errorResponse(w, r, status, services.CodeOf(err), err.Error())
}

// actor returns the authenticated caller or writes a 401.
func (h responder) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r)
		return models.Actor{}, false
	}
	return actor, true
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
