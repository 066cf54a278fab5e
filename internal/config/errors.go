package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigMissing is returned when the host holds no settings for a
// provider.
var ErrConfigMissing = errors.New("config not found")

// ValidationError lists required settings that are empty.
type ValidationError struct {
	Provider string
	Missing  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s config is missing required fields: %s", e.Provider, strings.Join(e.Missing, ", "))
}
