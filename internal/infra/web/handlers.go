package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/usecase"
)

// queueRepos gives the pending-queue endpoints direct read access; listing
// needs no use-case logic beyond the repositories themselves.
type queueRepos struct {
	Refunds repository.RefundRepository
	Payouts repository.PayoutRequestRepository
	Verifs  repository.VerificationRepository
}

func NewQueueRepos(refunds repository.RefundRepository, payouts repository.PayoutRequestRepository, verifs repository.VerificationRepository) *queueRepos {
	return &queueRepos{Refunds: refunds, Payouts: payouts, Verifs: verifs}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrDuplicateActiveRequest), errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInconsistentRecord):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey  string `json:"api_key"`
		AdminID string `json:"admin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || body.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.auth.Mint(w, body.AdminID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	start, end := usecase.MonthWindow(time.Now())
	stats, err := s.dashUC.Compute(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePendingQueues(w http.ResponseWriter, r *http.Request) {
	refunds, err := s.queues.Refunds.ListPending(r.Context(), repository.NoTX)
	if err != nil {
		writeError(w, err)
		return
	}
	payouts, err := s.queues.Payouts.ListPending(r.Context(), repository.NoTX)
	if err != nil {
		writeError(w, err)
		return
	}
	verifs, err := s.queues.Verifs.ListPending(r.Context(), repository.NoTX)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"refunds":       refunds,
		"payouts":       payouts,
		"verifications": verifs,
	})
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outcome string `json:"outcome"`
		AdminID string `json:"admin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	err := s.approvalUC.Decide(
		r.Context(),
		model.ApprovalKind(chi.URLParam(r, "kind")),
		chi.URLParam(r, "id"),
		model.Outcome(body.Outcome),
		model.Actor{ID: body.AdminID, Role: model.RoleAdmin},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actorFromRequest(actorID, role string) (model.Actor, bool) {
	a := model.Actor{ID: actorID, Role: model.Role(role)}
	return a, a.ID != "" && a.Role.Valid()
}

func (s *Server) handleRefundPreview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r.URL.Query().Get("actor_id"), r.URL.Query().Get("role"))
	if !ok {
		http.Error(w, "actor_id and role are required", http.StatusBadRequest)
		return
	}
	decision, err := s.cancelUC.Evaluate(r.Context(), chi.URLParam(r, "id"), actor, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleCancellation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ActorID string `json:"actor_id"`
		Role    string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	actor, ok := actorFromRequest(body.ActorID, body.Role)
	if !ok {
		http.Error(w, "actor_id and role are required", http.StatusBadRequest)
		return
	}
	refund, decision, err := s.cancelUC.RequestRefund(r.Context(), chi.URLParam(r, "id"), actor, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"refund":   refund,
		"decision": decision,
	})
}

func (s *Server) handleEligibleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.payoutUC.EligibleBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"eligible_balance": balance})
}

func (s *Server) handlePublishGate(w http.ResponseWriter, r *http.Request) {
	if err := s.verifUC.CanPublishLesson(r.Context(), chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, domain.ErrVerificationNotSubmitted),
			errors.Is(err, domain.ErrVerificationPending),
			errors.Is(err, domain.ErrVerificationRejected):
			writeJSON(w, http.StatusOK, map[string]interface{}{"publishable": false, "reason": err.Error()})
		default:
			writeError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"publishable": true})
}

func (s *Server) handleSubmitPayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.payoutUC.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	v, err := s.verifUC.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
