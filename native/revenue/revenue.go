// Package revenue converts stream counts and per-platform rates into bounded
// payment amounts for the royalty ledger. It shares the ledger's amount
// arithmetic and never raises: results past the ceiling saturate to zero.
package revenue

import (
	"math/big"

	"royaltychain/native/royalty"
)

// MaxRateMultiplier caps the per-platform multiplier; 100 means the base rate
// applies unchanged.
const MaxRateMultiplier = 200

// ComputeAmount returns streams x rate x multiplier / 100 as a bounded
// amount. Multipliers above MaxRateMultiplier are clamped to it, the division
// truncates toward zero, and any intermediate overflow of the ceiling
// saturates the whole result to zero. Callers that disallow zero-amount
// payments must validate streams upstream.
func ComputeAmount(streams, rate, multiplier uint64) *big.Int {
	if multiplier > MaxRateMultiplier {
		multiplier = MaxRateMultiplier
	}
	base := royalty.SaturatingMul(new(big.Int).SetUint64(streams), new(big.Int).SetUint64(rate))
	if base.Sign() == 0 {
		return base
	}
	scaled := royalty.SaturatingMul(base, new(big.Int).SetUint64(multiplier))
	if scaled.Sign() == 0 {
		return scaled
	}
	return scaled.Div(scaled, big.NewInt(100))
}
