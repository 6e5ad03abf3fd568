package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bundlefolio/backend/src/models"
)

func TestParsePrediction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    predictedPayment
		wantErr bool
	}{
		{
			name:  "plain json",
			input: `{"payDate":"2025-09-12","amount":0.52}`,
			want:  predictedPayment{PayDate: "2025-09-12", Amount: 0.52},
		},
		{
			name:  "fenced json",
			input: "```json\n{\"payDate\":\"2025-09-12\",\"amount\":0.52}\n```",
			want:  predictedPayment{PayDate: "2025-09-12", Amount: 0.52},
		},
		{
			name:    "prose instead of json",
			input:   "The next dividend will likely be paid in September.",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parsePrediction(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildPredictionPrompt(t *testing.T) {
	history := []models.DividendPayment{
		{PayDate: time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC), Amount: 0.51},
		{PayDate: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), Amount: 0.50},
	}
	prompt, err := buildPredictionPrompt("KO", history)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Symbol: KO")
	assert.Contains(t, prompt, `"payDate":"2025-06-12"`)
	assert.Contains(t, prompt, `"amount":0.51`)
}

func TestPredictNextDividendNotConfigured(t *testing.T) {
	svc := &predictionServiceImpl{}
	_, err := svc.PredictNextDividend(context.Background(), "KO", quarterlyHistory("KO", 0.50, 4))
	assert.ErrorIs(t, err, ErrPredictionFailed)
}
