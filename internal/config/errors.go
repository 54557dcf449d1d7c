package config

import "errors"

var (
	ErrInvalidOptions = errors.New("invalid options")
	ErrInvalidSize    = errors.New("invalid size")
)
