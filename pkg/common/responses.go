package common

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"myblog-backend/pkg/errors"
)

// MaxBodyBytes caps request bodies accepted by DecodeJSONBody
const MaxBodyBytes int64 = 1 << 20

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondNoContent sends an empty 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSONBody parses a JSON request body with a size limit.
// Unknown fields and malformed JSON become VALIDATION_FAILED so the caller
// sees the same error shape as for domain rule violations.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.NewValidationError("Request body is required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return bodyError(err)
	}
	if decoder.More() {
		return errors.NewValidationError("Request body must contain a single JSON object")
	}
	return nil
}

func bodyError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	violations := errors.NewValidationErrors()
	switch {
	case stderrors.Is(err, io.EOF):
		violations.Add("request", "Request body is required")
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.ErrUnexpectedEOF):
		violations.Add("request", "Invalid JSON in request body")
	case stderrors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "request"
		}
		violations.Addf(field, "Must be of type %s", jsonTypeName(typeErr.Type.Kind().String()))
	case stderrors.As(err, &maxErr):
		violations.Addf("request", "Request body must not exceed %d bytes", maxErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		violations.Addf("request", "Unknown field %q", name)
	default:
		return errors.Wrap(err, "failed to decode request body")
	}
	return violations.ToAppError()
}

func jsonTypeName(kind string) string {
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "uint"), strings.HasPrefix(kind, "float"):
		return "number"
	case kind == "slice", kind == "array":
		return "array"
	case kind == "struct", kind == "map", kind == "ptr":
		return "object"
	default:
		return kind
	}
}
