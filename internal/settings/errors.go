package settings

import "fmt"

// ConfigurationError reports an alias source that is missing, unreadable or
// malformed. No settings are produced alongside it.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: alias source %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
