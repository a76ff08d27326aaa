package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	decimalRegex = regexp.MustCompile(`^[0-9]+$`)
	hexSigRegex  = regexp.MustCompile(`^0x[0-9a-fA-F]{130}$`)
)

func init() {
	// udec: unsigned decimal token amount, no sign, no separators.
	validate.RegisterValidation("udec", func(fl validator.FieldLevel) bool {
		return decimalRegex.MatchString(fl.Field().String())
	})
	// hexsig: 0x-prefixed 65-byte compact signature.
	validate.RegisterValidation("hexsig", func(fl validator.FieldLevel) bool {
		return hexSigRegex.MatchString(fl.Field().String())
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}

// ParseLimit reads the optional ?limit query parameter.
func ParseLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}
