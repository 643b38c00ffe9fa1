package streampool

import "math/big"

// VestedAmount returns the portion of a pool's deposit unlocked after
// elapsed seconds of a period-second schedule. The result is exact integer
// math: a single multiply-then-divide on arbitrary-precision values, so the
// product cannot overflow and rounding always floors. Deterministic in its
// three inputs; no hidden state.
//
// A non-positive period is treated as fully vested. Pool creation rejects
// such periods, so the branch only matters for direct callers.
func VestedAmount(deposited *big.Int, elapsed, period int64) *big.Int {
	if deposited == nil || deposited.Sign() <= 0 {
		return big.NewInt(0)
	}
	if elapsed <= 0 {
		return big.NewInt(0)
	}
	if period <= 0 || elapsed >= period {
		return new(big.Int).Set(deposited)
	}
	vested := new(big.Int).Mul(deposited, big.NewInt(elapsed))
	return vested.Div(vested, big.NewInt(period))
}

// splitByWeight floors total*weight/sum. Callers guarantee sum > 0.
func splitByWeight(total, weight, sum *big.Int) *big.Int {
	if total == nil || weight == nil || sum == nil || sum.Sign() <= 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(total, weight)
	return share.Div(share, sum)
}
