package config

import (
	"errors"

	"github.com/dshills/stoat/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrFileNotFound indicates an explicitly named config file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrUnknownSetting indicates a key no section defines.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSetting indicates a value outside its allowed range.
	ErrInvalidSetting = errors.New("invalid setting")
)

// ParseError is returned when a config file cannot be parsed.
type ParseError = loader.ParseError
