package common

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"myblog-backend/pkg/errors"
)

// PageRequest represents cursor pagination parameters taken from a request
type PageRequest struct {
	Limit     int    `json:"limit"`
	NextToken string `json:"nextToken,omitempty"`
}

// ExtractPageRequest reads limit and nextToken from the query string.
// An absent limit yields defaultLimit; a present but non-numeric one is a
// validation failure rather than being silently replaced.
func ExtractPageRequest(r *http.Request, defaultLimit int) (PageRequest, error) {
	params := PageRequest{
		Limit:     defaultLimit,
		NextToken: r.URL.Query().Get("nextToken"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			violations := errors.NewValidationErrors()
			violations.Add("limit", "Limit must be an integer")
			return params, violations.ToAppError()
		}
		params.Limit = limit
	}

	return params, nil
}

// EncodeToken turns a store resume key into an opaque, URL-safe token.
// A nil or empty key encodes to "".
func EncodeToken(key map[string]string) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode pagination token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeToken reverses EncodeToken. "" decodes to a nil key.
// Any malformed input yields an INVALID_TOKEN error.
func DecodeToken(token string) (map[string]string, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewInvalidTokenError(err)
	}

	var key map[string]string
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, errors.NewInvalidTokenError(err)
	}
	if len(key) == 0 {
		return nil, errors.NewInvalidTokenError(fmt.Errorf("empty resume key"))
	}

	return key, nil
}

// PageResponse is the wire shape of a cursor-paginated list
type PageResponse struct {
	Posts     interface{} `json:"posts"`
	NextToken string      `json:"nextToken,omitempty"`
}
