package app

import "errors"

var (
	// ErrUpstream marks failures of the leads backend, as opposed to local lookups.
	ErrUpstream        = errors.New("leads backend failure")
	ErrInvalidArgument = errors.New("invalid argument")
)
