package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports settings that must be fixed before the server
// can start.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: missing or invalid %s", strings.Join(e.Missing, ", "))
}

// errorOrNil returns e when it lists at least one problem.
func (e *ConfigurationError) errorOrNil() error {
	if len(e.Missing) == 0 {
		return nil
	}
	return e
}
