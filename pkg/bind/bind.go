// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

const defaultMaxBody = 1 << 20

// JSON decodes r.Body into dest and runs validate.Struct on it. The body is
// capped at MAX_BODY_BYTES (1 MB by default) and must hold exactly one
// JSON value.
//
// Malformed input yields (nil, err); failed validation yields (errs, nil).
func JSON(r *http.Request, dest interface{}) (map[string]string, error) {
	limit := config.GetInt64("MAX_BODY_BYTES", defaultMaxBody)
	if limit <= 0 {
		limit = defaultMaxBody
	}
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is empty")
		default:
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data after body")
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
