package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceLogger derives a logger from the global one, tagged with service.
// Call it after logging is configured.
func ServiceLogger(service string) zerolog.Logger {
	return log.Logger.With().Str("service", service).Logger()
}
