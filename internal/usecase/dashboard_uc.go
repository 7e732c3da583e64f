package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/infra/metrics"
)

// DashboardStats is the admin dashboard payload: revenue figures for the
// requested window and for all time, plus the pending-approval counts. The
// pending counts are always all-time regardless of the window, so operators
// never see a false "0 pending" in a quiet month.
type DashboardStats struct {
	Window               model.LedgerTotals
	AllTime              model.LedgerTotals
	PendingRefunds       int
	PendingPayouts       int
	PendingVerifications int
}

// MonthWindow returns the [start, nextStart) bounds of now's calendar month.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// Compile-time check
var _ DashboardUseCase = (*dashboardUC)(nil)

type DashboardUseCase interface {
	Compute(ctx context.Context, windowStart, windowEnd time.Time) (*DashboardStats, error)
}

type dashboardUC struct {
	payments repository.PaymentRepository
	refunds  repository.RefundRepository
	payouts  repository.PayoutRequestRepository
	verifs   repository.VerificationRepository
	log      *zerolog.Logger
}

func NewDashboardUseCase(
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	payouts repository.PayoutRequestRepository,
	verifs repository.VerificationRepository,
	logger *zerolog.Logger,
) *dashboardUC {
	return &dashboardUC{payments: payments, refunds: refunds, payouts: payouts, verifs: verifs, log: logger}
}

func (u *dashboardUC) Compute(ctx context.Context, windowStart, windowEnd time.Time) (*DashboardStats, error) {
	window, err := u.aggregate(ctx, &windowStart, &windowEnd)
	if err != nil {
		return nil, err
	}
	allTime, err := u.aggregate(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{Window: window, AllTime: allTime}
	if stats.PendingRefunds, err = u.refunds.CountPending(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.PendingPayouts, err = u.payouts.CountPending(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.PendingVerifications, err = u.verifs.CountPending(ctx, repository.NoTX); err != nil {
		return nil, err
	}

	if n := window.Anomalies + allTime.Anomalies; n > 0 {
		metrics.AddDashboardAnomalies(n)
		u.log.Warn().Int("anomalies", n).Msg("malformed records excluded from dashboard totals")
	}
	return stats, nil
}

func (u *dashboardUC) aggregate(ctx context.Context, start, end *time.Time) (model.LedgerTotals, error) {
	payments, err := u.payments.ListByWindow(ctx, repository.NoTX, start, end)
	if err != nil {
		return model.LedgerTotals{}, err
	}
	refunds, err := u.refunds.ListByWindow(ctx, repository.NoTX, start, end)
	if err != nil {
		return model.LedgerTotals{}, err
	}
	payouts, err := u.payouts.ListByWindow(ctx, repository.NoTX, start, end)
	if err != nil {
		return model.LedgerTotals{}, err
	}
	return model.AggregateLedger(payments, refunds, payouts), nil
}
