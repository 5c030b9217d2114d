package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mouldtrack-backend/config"
	"mouldtrack-backend/internal/fault"
)

// Input is the material handed to the recommendation collaborator: free-text
// machine history, the current PM schedule, and the downtime cost rate.
type Input struct {
	MachineHistory      string  `json:"machineHistory"`
	PMSchedule          string  `json:"preventativeMaintenanceSchedule"`
	CostPerHourDowntime float64 `json:"costOfDowntime"`
}

// Output is the collaborator's report, opaque text per section.
type Output struct {
	PredictedFailures    string `json:"predictedFailures"`
	RecommendedActions   string `json:"recommendedActions"`
	PotentialCostSavings string `json:"potentialCostSavings"`
}

// apiResponse models the upstream envelope.
type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    Output `json:"data"`
}

// Client calls the external AI recommendation service. The call is treated as
// opaque, slow and fallible: one attempt, a hard timeout, and an error the
// caller is expected to surface rather than retry.
type Client struct {
	cfg    *config.RecommendConfig
	client *http.Client
}

// NewClient builds a client from the recommend section of the configuration.
func NewClient(cfg *config.RecommendConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Generate requests a recommendation report. Failures come back as a single
// opaque message; when the upstream offers none, the message is "unknown".
func (c *Client) Generate(ctx context.Context, in Input) (Output, error) {
	if c.cfg.URL == "" {
		return Output{}, fault.Configurationf("recommendation service url is not configured")
	}
	if in.MachineHistory == "" {
		return Output{}, fault.Validationf("machine history is required")
	}
	if in.CostPerHourDowntime < 0 {
		return Output{}, fault.Validationf("cost of downtime must be non-negative")
	}

	jsonBody, err := json.Marshal(in)
	if err != nil {
		return Output{}, fmt.Errorf("failed to marshal recommendation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("recommendation service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Output{}, fmt.Errorf("failed to read recommendation response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Output{}, fmt.Errorf("failed to unmarshal recommendation response: %w", err)
	}

	if apiResp.Code != 0 {
		msg := apiResp.Message
		if msg == "" {
			msg = "unknown"
		}
		return Output{}, fmt.Errorf("recommendation service error: %s", msg)
	}

	return apiResp.Data, nil
}
