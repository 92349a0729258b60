// Package rules contains the pure calculation logic for the production
// economy. This package is PURE and must NOT import any infrastructure
// packages.
package rules

// SecondsPerMonth scales the monthly effective output down to the
// per-second accrual rate (30-day month).
const SecondsPerMonth = 30 * 24 * 60 * 60

// EffectiveOutput discounts a commanded quantity by reliability and
// popularity: floor(q * r/100 * p/100). Negative inputs produce 0.
func EffectiveOutput(quantity, reliability, popularity int) int {
	if quantity <= 0 || reliability <= 0 || popularity <= 0 {
		return 0
	}
	return quantity * reliability * popularity / 10000
}

// MonthlyProfit is the revenue generated by an effective output at the
// machine's per-unit profit.
func MonthlyProfit(effectiveOutput, profitPerUnit int) int64 {
	return int64(effectiveOutput) * int64(profitPerUnit)
}

// PerSecondRate converts a monthly effective output into the continuous
// accrual rate. Any producing machine yields at least one unit per second.
func PerSecondRate(effectiveOutput int) int {
	rate := effectiveOutput / SecondsPerMonth
	if rate < 1 {
		return 1
	}
	return rate
}

// ClampPercent keeps a stat inside [0,100]. Applied after every mutation of
// reliability or popularity.
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
