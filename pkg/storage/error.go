package storage

import "strconv"

// NotFoundError is returned when an ingredient doesn't exist in the store.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	if e.ID == 0 {
		return "ingredient not found"
	}

	return "ingredient not found: " + strconv.FormatInt(e.ID, 10)
}
