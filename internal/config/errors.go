package config

import (
	"errors"
)

var (
	// ErrInvalidConfig is wrapped by Validate when a setting is out of range,
	// such as an unknown data_source or a missing jwt_secret.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the dotenv, YAML or ROLLCALL_
	// environment layers.
	ErrLoadConfig = errors.New("load config failed")
)
