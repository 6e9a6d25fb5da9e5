package utils

import (
	"fmt"
	"strconv"
)

// ParamError represents an invalid path or query parameter
type ParamError struct {
	Code    string
	Message string
}

func (e *ParamError) Error() string {
	return e.Message
}

// ParseID parses a positive numeric identifier from a path parameter
func ParseID(name, raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, &ParamError{
			Code:    "INVALID_ID",
			Message: fmt.Sprintf("Invalid %s: %q", name, raw),
		}
	}
	return uint(id), nil
}
