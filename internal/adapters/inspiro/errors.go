package inspiro

import (
	"errors"
	"fmt"
)

// ErrUnavailable: el breaker esta abierto o el proveedor respondio basura.
var ErrUnavailable = errors.New("inspiro unavailable")

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inspiro api status %d: %s", e.Status, e.Body)
}
