package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/config"
	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/infra/payment"
	"fitlesson-settlement/internal/usecase"
)

// Server receives the payment processor's webhook and the transfer service's
// settlement confirmations. Both providers deliver at least once, so every
// handler path must be safe to repeat.
type Server struct {
	cfg      *config.Config
	eventUC  usecase.ProcessorEventUseCase
	payoutUC usecase.PayoutUseCase
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(cfg *config.Config, eventUC usecase.ProcessorEventUseCase, payoutUC usecase.PayoutUseCase, logger *zerolog.Logger) *Server {
	return &Server{cfg: cfg, eventUC: eventUC, payoutUC: payoutUC, log: logger}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/processor", s.handleProcessorEvent)
	mux.HandleFunc("/webhook/transfer", s.handleTransferConfirmation)
	mux.HandleFunc("/health", s.handleHealthCheck)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Webhook.Port),
		Handler: mux,
	}
	s.log.Info().Int("port", s.cfg.Webhook.Port).Msg("webhook server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type processorEventBody struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	NetAmount int64  `json:"net_amount"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

func (s *Server) handleProcessorEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, ok := s.readSigned(w, r, s.cfg.Webhook.ProcessorSecret)
	if !ok {
		return
	}

	var ev processorEventBody
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err := s.eventUC.Apply(ctx, usecase.ProcessorEvent{
		PaymentID: ev.PaymentID,
		Status:    ev.Status,
		Amount:    ev.Amount,
		NetAmount: ev.NetAmount,
		Timestamp: time.Unix(ev.Timestamp, 0).UTC(),
	})
	s.respond(w, err)
}

type transferConfirmationBody struct {
	PayoutRequestID string `json:"payout_request_id"`
	Status          string `json:"status"` // "completed" | "failed"
}

func (s *Server) handleTransferConfirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, ok := s.readSigned(w, r, s.cfg.Webhook.TransferSecret)
	if !ok {
		return
	}

	var ev transferConfirmationBody
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if ev.Status != "completed" {
		// A failed transfer leaves the request approved for a retry; nothing
		// to settle.
		s.log.Warn().Str("payout_id", ev.PayoutRequestID).Str("status", ev.Status).Msg("transfer did not complete")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	s.respond(w, s.payoutUC.MarkSettled(ctx, ev.PayoutRequestID))
}

// readSigned reads the body and rejects deliveries whose X-Signature header
// does not match the shared-secret HMAC. In dev mode an empty secret skips
// the check.
func (s *Server) readSigned(w http.ResponseWriter, r *http.Request, secret string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return nil, false
	}
	if secret != "" && !payment.VerifySignature(secret, body, r.Header.Get("X-Signature")) {
		s.log.Warn().Str("path", r.URL.Path).Msg("webhook signature mismatch")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return nil, false
	}
	return body, true
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "unknown entity", http.StatusNotFound)
	case errors.Is(err, domain.ErrInconsistentRecord), errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		// 5xx so the provider redelivers; idempotency makes that safe.
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
