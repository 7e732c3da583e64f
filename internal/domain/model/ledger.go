package model

// LedgerTotals is the aggregation of raw settlement records over one time
// window. All fields are computed by pure functions over explicit record
// sets so the figures are testable without a store.
type LedgerTotals struct {
	LessonCount  int
	GrossRevenue int64
	FeeRevenue   int64
	RefundTotal  int64
	PayoutTotal  int64
	// Anomalies counts records excluded for violating monetary integrity
	// (e.g. netAmount > amount). A malformed row never crashes the
	// aggregation and is never silently dropped.
	Anomalies int
}

// AggregateLedger rolls the given records into one LedgerTotals. Callers
// pre-filter the slices to the window of interest; this function applies only
// status filters and integrity checks.
func AggregateLedger(payments []*Payment, refunds []*Refund, payouts []*PayoutRequest) LedgerTotals {
	var t LedgerTotals
	for _, p := range payments {
		if p == nil || !p.Status.Settled() {
			continue
		}
		if p.Validate() != nil {
			t.Anomalies++
			continue
		}
		t.LessonCount++
		t.GrossRevenue += p.Amount
		t.FeeRevenue += PlatformFee(p.Amount, p.NetAmount)
	}
	for _, r := range refunds {
		if r == nil || r.Status != RefundStatusRefunded {
			continue
		}
		if r.RefundAmount < 0 {
			t.Anomalies++
			continue
		}
		t.RefundTotal += r.RefundAmount
	}
	for _, po := range payouts {
		if po == nil || po.Status != PayoutStatusPaid {
			continue
		}
		if po.NetPayout < 0 || po.NetPayout > po.GrossEligible {
			t.Anomalies++
			continue
		}
		t.PayoutTotal += po.NetPayout
	}
	return t
}
