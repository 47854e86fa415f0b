package handlers

import (
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/fxrisk/internal/modules/hedging"
)

func TestRegisterRoutes(t *testing.T) {
	service := hedging.NewService(
		&stubExposures{},
		&stubRateSource{rate: 1.0},
		hedging.NewVolatilityEstimator(&stubHistory{}, zerolog.Nop()),
		newSettingsService(t),
		zerolog.Nop(),
	)
	handler := NewHandler(service, zerolog.Nop())

	router := chi.NewRouter()

	// Should not panic
	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")
}
