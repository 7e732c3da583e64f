package model

// All monetary values are integer currency units; arithmetic truncates so the
// platform never grants itself fractional currency.

// PlatformFee is the platform's revenue on a payment: the nominal 20% cut of
// the gross amount minus the processor's fee (amount - netAmount). It can be
// negative when the processor fee exceeds the nominal cut; callers must
// surface that, not clamp it.
func PlatformFee(amount, netAmount int64) int64 {
	return amount*20/100 - (amount - netAmount)
}

// TrainerShare is the trainer's cut: 80% of the net amount. The fee uses the
// gross amount as its base while the share uses net; the bases intentionally
// differ and must not be unified.
func TrainerShare(netAmount int64) int64 {
	return netAmount * 80 / 100
}
