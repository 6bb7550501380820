// Package httpio holds the request decoding and response writing helpers
// shared by every HTTP handler. Handlers never write bodies by hand: success
// payloads go through WriteJSON and every failure goes through WriteError so
// clients always see the same {"error": "..."} shape.
package httpio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/logging"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// validate is safe for concurrent use and caches struct metadata. Field
// errors are reported under their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// max counts runes; maxbytes counts UTF-8 bytes.
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	return err == nil && len(fl.Field().String()) <= n
}

// DecodeJSON reads a JSON body into dst and runs its `validate` struct tags.
// Shape problems are BadRequestError; failed
// validation rules are ValidationError naming the offending fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.NewBadRequestError("request body is required", err)
		}
		return apperror.NewBadRequestError("invalid request body", err)
	}
	if dec.More() {
		return apperror.NewBadRequestError("request body must contain a single JSON object", nil)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperror.NewValidationError(describe(verrs), err)
		}
		return apperror.NewBadRequestError("invalid request body", err)
	}
	return nil
}

// describe turns validator output into a client-safe message such as
// "invalid fields: email (email), password (required)".
func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// WriteJSON serializes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// headers are gone at this point; nothing left to do on failure
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError converts err into an AppError and writes its public message.
// Errors that are not AppErrors become a generic 500; their text is logged
// and never sent. Every 5xx is logged with its cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("internal server error", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error(r.Context(), "request failed",
			"status", status,
			"error", appErr.Error(),
		)
	}
	WriteJSON(w, status, appErr.ToResponse())
}
