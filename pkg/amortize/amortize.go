package amortize

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrincipal = errors.New("amortize: principal must be a positive integer amount")
	ErrInvalidTerm      = errors.New("amortize: term must be at least one month")
)

var (
	basisPoints   = big.NewInt(10_000)
	monthsPerYear = big.NewInt(12)
	ray           = mustBigInt("1000000000000000000000000000") // 1e27 precision
	halfRay       = new(big.Int).Rsh(ray, 1)
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// Schedule computes the fixed monthly payment and total scheduled interest
// for a loan of `principal` base units at `rateBps` APR over `months`.
//
// The monthly rate is r = rateBps/10000/12 and the payment follows the
// standard amortization formula M = P*r*(1+r)^n / ((1+r)^n - 1). All
// intermediate math runs on ray-scaled (1e27) integers with round-half-up
// at every division, so the same inputs always produce the same schedule.
// Total interest is defined as M*n - P (clamped at zero), which keeps the
// schedule identity M*n = P + interest exact.
//
// When r = 0 the payment is principal/months, integer division; the carried
// remainder is absorbed by the final settlement payment.
func Schedule(principal decimal.Decimal, rateBps uint32, months uint32) (monthly, totalInterest decimal.Decimal, err error) {
	if principal.Sign() <= 0 || !principal.IsInteger() {
		return decimal.Zero, decimal.Zero, ErrInvalidPrincipal
	}
	if months == 0 {
		return decimal.Zero, decimal.Zero, ErrInvalidTerm
	}
	p := principal.BigInt()
	n := big.NewInt(int64(months))

	if rateBps == 0 {
		m := new(big.Int).Quo(p, n)
		return decimal.NewFromBigInt(m, 0), decimal.Zero, nil
	}

	// r in ray units: rateBps * ray / (10000 * 12)
	rRay := divHalfUp(
		new(big.Int).Mul(big.NewInt(int64(rateBps)), ray),
		new(big.Int).Mul(basisPoints, monthsPerYear),
	)
	factorRay := new(big.Int).Add(ray, rRay)
	powRay := rayPow(factorRay, months)

	// M = P * (r * (1+r)^n) / ((1+r)^n - 1)
	numerator := new(big.Int).Mul(p, rayMul(rRay, powRay))
	denominator := new(big.Int).Sub(powRay, ray)
	m := divHalfUp(numerator, denominator)

	interest := new(big.Int).Mul(m, n)
	interest.Sub(interest, p)
	if interest.Sign() < 0 {
		interest.SetInt64(0)
	}
	return decimal.NewFromBigInt(m, 0), decimal.NewFromBigInt(interest, 0), nil
}

func rayMul(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	product.Add(product, halfRay)
	product.Quo(product, ray)
	return product
}

// rayPow raises a ray-scaled base to an integer exponent by squaring,
// rounding half-up after every multiplication.
func rayPow(base *big.Int, exp uint32) *big.Int {
	result := new(big.Int).Set(ray)
	cur := new(big.Int).Set(base)
	for exp > 0 {
		if exp&1 == 1 {
			result = rayMul(result, cur)
		}
		cur = rayMul(cur, cur)
		exp >>= 1
	}
	return result
}

func divHalfUp(a, b *big.Int) *big.Int {
	q := new(big.Int).Add(a, halfUp(b))
	q.Quo(q, b)
	return q
}

func halfUp(x *big.Int) *big.Int {
	if x.Sign() <= 0 {
		return big.NewInt(0)
	}
	half := new(big.Int).Add(x, big.NewInt(1))
	half.Rsh(half, 1)
	return half
}
