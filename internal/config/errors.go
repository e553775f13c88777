package config

import "errors"

var (
	// ErrUnknownKey is returned when a file holds keys the schema does not define.
	ErrUnknownKey = errors.New("unknown keys")

	// ErrInvalid wraps every validation failure; use errors.Is to detect it.
	ErrInvalid = errors.New("invalid configuration")
)
