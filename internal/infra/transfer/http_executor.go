package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fitlesson-settlement/internal/config"
	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TransferExecutor = (*HTTPExecutor)(nil)

// HTTPExecutor hands approved payouts to the external transfer service. The
// service executes asynchronously and reports completion through the
// /webhook/transfer callback.
type HTTPExecutor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPExecutor(cfg config.TransferConfig) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *HTTPExecutor) Name() string { return "transfer-http" }

type transferRequest struct {
	TrainerID       string `json:"trainer_id"`
	NetPayout       int64  `json:"net_payout"`
	PayoutRequestID string `json:"payout_request_id"` // doubles as the provider idempotency key
}

func (e *HTTPExecutor) Execute(ctx context.Context, trainerID string, netPayout int64, payoutRequestID string) error {
	body, err := json.Marshal(transferRequest{
		TrainerID:       trainerID,
		NetPayout:       netPayout,
		PayoutRequestID: payoutRequestID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Idempotency-Key", payoutRequestID)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	// 409 means the provider already holds this transfer; re-submission after
	// a lost response is expected and fine.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: transfer service returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}
