package assignment

import "errors"

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrTrolleyCheckedOut  = errors.New("trolley already has an active assignment")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
