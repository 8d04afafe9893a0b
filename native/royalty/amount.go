package royalty

import (
	"fmt"
	"math/big"
)

// MaxAmount is the ceiling of the bounded amount type used everywhere money is
// computed or compared: 2^128 - 1.
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// ValidAmount reports whether v is a usable payment amount: non-nil, strictly
// positive and within the ceiling.
func ValidAmount(v *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(MaxAmount) <= 0
}

// CheckedAdd returns a + b or ErrOverflow when the sum would exceed the
// ceiling. Negative inputs are rejected as invalid.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	a, b = orZero(a), orZero(b)
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidInput)
	}
	sum := new(big.Int).Add(a, b)
	if sum.Cmp(MaxAmount) > 0 {
		return nil, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a - b or ErrInvalidInput when the difference would be
// negative. Balances never go below zero.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	a, b = orZero(a), orZero(b)
	if a.Cmp(b) < 0 {
		return nil, fmt.Errorf("%w: amount underflow", ErrInvalidInput)
	}
	return new(big.Int).Sub(a, b), nil
}

// CheckedMul returns a * b or ErrOverflow when the product would exceed the
// ceiling.
func CheckedMul(a, b *big.Int) (*big.Int, error) {
	a, b = orZero(a), orZero(b)
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidInput)
	}
	product := new(big.Int).Mul(a, b)
	if product.Cmp(MaxAmount) > 0 {
		return nil, ErrOverflow
	}
	return product, nil
}

// SaturatingAdd returns a + b, clamping to zero when the sum would exceed the
// ceiling. The zero sentinel mirrors the saturation behaviour of the original
// amount type rather than wrapping silently.
func SaturatingAdd(a, b *big.Int) *big.Int {
	sum, err := CheckedAdd(a, b)
	if err != nil {
		return big.NewInt(0)
	}
	return sum
}

// SaturatingMul returns a * b, clamping to zero when the product would exceed
// the ceiling.
func SaturatingMul(a, b *big.Int) *big.Int {
	product, err := CheckedMul(a, b)
	if err != nil {
		return big.NewInt(0)
	}
	return product
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
