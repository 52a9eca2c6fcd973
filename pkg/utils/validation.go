package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsHTTPURL reports whether s is an absolute http or https URL with a host
func IsHTTPURL(s string) bool {
	return validate.Var(s, "required,http_url") == nil
}
