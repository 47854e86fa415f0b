package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowThreshold marks operations worth a warning. Rate refreshes and policy
// cascades walk the whole exposure book; past this they are blocking the
// dashboard.
const slowThreshold = 10 * time.Second

// OperationTimer provides a defer-friendly way to measure operation duration.
//
// Usage:
//
//	func (s *Service) RefreshAll() error {
//	    defer utils.OperationTimer("rate_refresh", s.log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > slowThreshold {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
	}
}
