package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/config"
	"fitlesson-settlement/internal/usecase"
)

// Server is the admin API: the settlement dashboard, the pending approval
// queues, and the decide endpoints.
type Server struct {
	dashUC     usecase.DashboardUseCase
	approvalUC usecase.ApprovalUseCase
	cancelUC   usecase.CancellationUseCase
	payoutUC   usecase.PayoutUseCase
	verifUC    usecase.VerificationUseCase
	queues     *queueRepos
	auth       *AuthManager
	apiKey     string
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	cfg *config.Config,
	dashUC usecase.DashboardUseCase,
	approvalUC usecase.ApprovalUseCase,
	cancelUC usecase.CancellationUseCase,
	payoutUC usecase.PayoutUseCase,
	verifUC usecase.VerificationUseCase,
	queues *queueRepos,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		dashUC:     dashUC,
		approvalUC: approvalUC,
		cancelUC:   cancelUC,
		payoutUC:   payoutUC,
		verifUC:    verifUC,
		queues:     queues,
		auth:       NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL),
		apiKey:     cfg.Admin.APIKey,
		log:        logger,
		server:     &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port)},
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/session", s.handleLogin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/approvals/pending", s.handlePendingQueues)
		r.Post("/approvals/{kind}/{id}", s.handleDecide)
		r.Get("/lessons/{id}/refund-preview", s.handleRefundPreview)
		r.Post("/lessons/{id}/cancellations", s.handleCancellation)
		r.Get("/trainers/{id}/balance", s.handleEligibleBalance)
		r.Get("/trainers/{id}/publishable", s.handlePublishGate)
		r.Post("/trainers/{id}/payout-requests", s.handleSubmitPayout)
		r.Post("/trainers/{id}/verifications", s.handleSubmitVerification)
	})
	return r
}

func (s *Server) Start() error {
	s.server.Handler = s.routes()
	s.log.Info().Str("addr", s.server.Addr).Msg("admin API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// authMiddleware accepts either the static bearer API key or a minted admin
// session cookie.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.bearerOK(r) {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := s.auth.Verify(r); err == nil {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

func (s *Server) bearerOK(r *http.Request) bool {
	if s.apiKey == "" {
		return false
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	return len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] == s.apiKey
}
