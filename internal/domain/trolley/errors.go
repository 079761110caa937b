package trolley

import "errors"

var (
	ErrTrolleyNotFound = errors.New("trolley not found")
	ErrNoStoreAssigned = errors.New("trolley has no store assigned")
)
