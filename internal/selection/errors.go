package selection

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks usage mistakes detected before any metadata is read.
var ErrConfiguration = errors.New("configuration error")

var (
	// ErrNoSelection is returned when a request carries no table selection criteria.
	ErrNoSelection = fmt.Errorf("%w: specify at least one table, an inward/outward/related table, or a module", ErrConfiguration)
	// ErrModuleRequired is returned when module tables are requested without a module.
	ErrModuleRequired = fmt.Errorf("%w: including module tables requires a module", ErrConfiguration)
)

// IsConfigurationError reports whether err is a usage mistake rather than a runtime failure.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
