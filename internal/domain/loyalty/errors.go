package loyalty

import "errors"

var (
	ErrAccountNotFound = errors.New("loyalty account not found")
	ErrAccountInactive = errors.New("loyalty account is inactive")
)
