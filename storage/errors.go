package storage

import "fmt"

// NotFoundError reports a point lookup that matched no row. Handlers match
// it through the api.NotFoundError interface to return 404 instead of 500.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound marks the error for interface-based matching.
func (e NotFoundError) NotFound() {}
