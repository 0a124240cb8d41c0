package exchange

// FeeRateBps is the protocol fee in basis points skimmed to the treasury on
// every trade. It is a fixed constant, not runtime-configurable.
const FeeRateBps = 50 // 0.5%

// CalculateFee returns floor(payment * feeRateBps / 10000). Integer division
// is the floor for the non-negative operands used here, so for rates in
// [0, 10000] the fee is always within [0, payment].
func CalculateFee(payment, feeRateBps int64) int64 {
	if payment <= 0 || feeRateBps <= 0 {
		return 0
	}
	return payment * feeRateBps / 10000
}
