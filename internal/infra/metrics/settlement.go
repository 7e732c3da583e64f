package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		payoutsTotal,
		decisionsTotal,
		webhookDuplicatesTotal,
		transferFailuresTotal,
		dashboardAnomaliesTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_payments_total",
			Help: "Processor events applied to payments, by resulting status.",
		},
		[]string{"status"},
	)

	payoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_payouts_total",
			Help: "Payout requests by status they entered (pending/paid).",
		},
		[]string{"status"},
	)

	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_decisions_total",
			Help: "Admin approval decisions by kind and result.",
		},
		[]string{"kind", "result"},
	)

	webhookDuplicatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_webhook_duplicates_total",
			Help: "Redelivered webhook events discarded as duplicates.",
		},
		[]string{"source"},
	)

	transferFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_transfer_failures_total",
			Help: "Failed hand-offs to the external transfer service.",
		},
		[]string{"provider"},
	)

	dashboardAnomaliesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_dashboard_anomalies_total",
			Help: "Malformed records excluded from dashboard aggregation.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(status string) { paymentsTotal.WithLabelValues(norm(status)).Inc() }

func IncPayout(status string) { payoutsTotal.WithLabelValues(norm(status)).Inc() }

func IncDecision(kind, result string) { decisionsTotal.WithLabelValues(norm(kind), norm(result)).Inc() }

func IncWebhookDuplicate(source string) { webhookDuplicatesTotal.WithLabelValues(norm(source)).Inc() }

func IncTransferFailure(provider string) { transferFailuresTotal.WithLabelValues(norm(provider)).Inc() }

func AddDashboardAnomalies(n int) { dashboardAnomaliesTotal.Add(float64(n)) }
