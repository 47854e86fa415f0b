// Package simulation provides a client for the external Monte-Carlo
// simulation service. The service owns outcome generation; this client only
// requests completed runs and passes the results through unchanged.
package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/domain"
)

// simulateRequest is the request body for POST /simulate.
type simulateRequest struct {
	ExposureID  string `json:"exposure_id"`
	HorizonDays int    `json:"horizon_days"`
}

// Client is the simulation service client.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new simulation service client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			// Monte-Carlo runs with large sample counts can take a while
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "simulation").Logger(),
	}
}

// GetSimulation requests a Monte-Carlo run for one exposure and time horizon.
func (c *Client) GetSimulation(ctx context.Context, exposureID string, horizonDays int) (*domain.SimulationResult, error) {
	body, err := json.Marshal(simulateRequest{
		ExposureID:  exposureID,
		HorizonDays: horizonDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().
		Str("exposure_id", exposureID).
		Int("horizon_days", horizonDays).
		Msg("Requesting simulation run")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simulation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("simulation service error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result domain.SimulationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode simulation result: %w", err)
	}

	c.log.Debug().
		Str("exposure_id", exposureID).
		Int("sample_size", len(result.SimulatedPnl)).
		Msg("Simulation run received")

	return &result, nil
}
