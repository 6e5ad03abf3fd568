package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/models"
)

// How many recent confirmed payments the model sees. Enough to expose the
// payment cadence and recent raise pattern without blowing up the prompt.
const predictionHistorySize = 12

const predictionSystemPrompt = `You are a dividend analyst. Given a company's recent
dividend payment history as JSON, predict the single next dividend payment.
Follow the established payment cadence (monthly, quarterly, semi-annual or annual)
and the recent per-share amount trend. Respond with ONLY a JSON object of the form
{"payDate":"YYYY-MM-DD","amount":0.00} and nothing else.`

type predictionServiceImpl struct {
	client *genai.Client
	model  string
}

// NewPredictionService creates the LLM-backed predictor. With an empty API
// key it returns a service whose PredictNextDividend always fails, so the
// rest of the app keeps working without a configured model.
func NewPredictionService(ctx context.Context, apiKey, model string) (PredictionService, error) {
	if apiKey == "" {
		logger.L.Warn("No LLM API key configured; dividend prediction disabled")
		return &predictionServiceImpl{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &predictionServiceImpl{client: client, model: model}, nil
}

type predictedPayment struct {
	PayDate string  `json:"payDate"`
	Amount  float64 `json:"amount"`
}

// PredictNextDividend returns the history with one predicted record
// prepended and the newest confirmed record re-tagged as most recent. The
// input history must be pay-date descending, the order the market service
// returns it in.
func (s *predictionServiceImpl) PredictNextDividend(ctx context.Context, symbol string, history []models.DividendPayment) ([]models.DividendPayment, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: predictor not configured", ErrPredictionFailed)
	}

	confirmed := make([]models.DividendPayment, 0, predictionHistorySize)
	for _, payment := range history {
		if !payment.Status.IsConfirmed() {
			continue
		}
		confirmed = append(confirmed, payment)
		if len(confirmed) == predictionHistorySize {
			break
		}
	}
	if len(confirmed) < 2 {
		return nil, fmt.Errorf("%w: not enough history for %s", ErrPredictionFailed, symbol)
	}

	prompt, err := buildPredictionPrompt(symbol, confirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: predictionSystemPrompt}}},
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}

	predicted, err := parsePrediction(resp.Text())
	if err != nil {
		logger.L.Warn("Unusable prediction from model", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	if predicted.Amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive predicted amount for %s", ErrPredictionFailed, symbol)
	}
	payDate, err := time.Parse("2006-01-02", predicted.PayDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad predicted pay date %q", ErrPredictionFailed, predicted.PayDate)
	}

	out := make([]models.DividendPayment, 0, len(history)+1)
	out = append(out, models.DividendPayment{
		Symbol:   symbol,
		PayDate:  payDate,
		Amount:   predicted.Amount,
		Currency: confirmed[0].Currency,
		Status:   models.StatusPredicted,
	})
	tagged := false
	for _, payment := range history {
		if !tagged && payment.Status.IsConfirmed() {
			payment.Status = models.StatusMostRecent
			tagged = true
		}
		out = append(out, payment)
	}

	logger.InfoFromContext(ctx, "Dividend predicted", "symbol", symbol, "payDate", predicted.PayDate, "amount", predicted.Amount)
	return out, nil
}

func buildPredictionPrompt(symbol string, confirmed []models.DividendPayment) (string, error) {
	type promptRow struct {
		PayDate string  `json:"payDate"`
		Amount  float64 `json:"amount"`
	}
	rows := make([]promptRow, len(confirmed))
	for i, payment := range confirmed {
		rows[i] = promptRow{
			PayDate: payment.PayDate.Format("2006-01-02"),
			Amount:  payment.Amount,
		}
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Symbol: %s\nPayments, newest first: %s", symbol, encoded), nil
}

// parsePrediction tolerates models that wrap the JSON in a code fence
// despite the MIME type constraint.
func parsePrediction(text string) (predictedPayment, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var predicted predictedPayment
	if err := json.Unmarshal([]byte(text), &predicted); err != nil {
		return predictedPayment{}, fmt.Errorf("failed to decode model response: %w", err)
	}
	return predicted, nil
}
