package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// DecodeJSON decodes a JSON request body into dst, rejecting unknown fields
// and bodies larger than maxBytes (1 MiB when maxBytes is 0).
func DecodeJSON(r *http.Request, dst interface{}, maxBytes int64) error {
	if maxBytes == 0 {
		maxBytes = 1 << 20
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// ParseIntParam parses an integer query parameter with a default value.
// Returns defaultVal if the parameter is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}
