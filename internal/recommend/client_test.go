package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mouldtrack-backend/config"
	"mouldtrack-backend/internal/fault"
)

func testClient(url string) *Client {
	cfg := &config.RecommendConfig{URL: url, Timeout: 2 * time.Second}
	return NewClient(cfg)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var in Input
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 450.0, in.CostPerHourDowntime)

		json.NewEncoder(w).Encode(apiResponse{
			Code: 0,
			Data: Output{
				PredictedFailures:    "Hydraulic pump wear on MC-003",
				RecommendedActions:   "Replace seals within 2 weeks",
				PotentialCostSavings: "$12,000 per quarter",
			},
		})
	}))
	defer server.Close()

	out, err := testClient(server.URL).Generate(context.Background(), Input{
		MachineHistory:      "MC-003: 3 hydraulic failures in 90 days",
		PMSchedule:          "Quarterly hydraulic check",
		CostPerHourDowntime: 450,
	})
	require.NoError(t, err)
	assert.Contains(t, out.PredictedFailures, "Hydraulic")
	assert.NotEmpty(t, out.PotentialCostSavings)
}

func TestGenerateUpstreamErrorIsOpaque(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{Code: 7})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), Input{MachineHistory: "history"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown", "an upstream error without a message reports as unknown")
}

func TestGenerateNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), Input{MachineHistory: "history"})
	assert.Error(t, err)
}

func TestGenerateValidation(t *testing.T) {
	c := testClient("http://localhost:1")

	_, err := c.Generate(context.Background(), Input{})
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = c.Generate(context.Background(), Input{MachineHistory: "h", CostPerHourDowntime: -1})
	assert.ErrorIs(t, err, fault.ErrValidation)

	unconfigured := NewClient(&config.RecommendConfig{Timeout: time.Second})
	_, err = unconfigured.Generate(context.Background(), Input{MachineHistory: "h"})
	assert.ErrorIs(t, err, fault.ErrConfiguration)
}
