package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden") // upstream 401/403
	ErrInvalidRecord = errors.New("invalid record")
)

func invalid(reason string) error { return fmt.Errorf("%w: %s", ErrInvalidRecord, reason) }
