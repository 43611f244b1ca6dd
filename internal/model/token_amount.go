package model

import (
	"math"
	"math/big"
)

// TokenAmount is a raw on-chain integer amount plus the token's decimal
// exponent. Feeds report raw values; everything downstream compares
// normalized token units.
type TokenAmount struct {
	Value    string `json:"value"`
	Decimals int    `json:"decimals"`
}

// ToFloat normalizes the raw value into token units. Returns false when the
// raw value is not a valid base-10 integer.
func (a *TokenAmount) ToFloat() (float64, bool) {
	num, ok := new(big.Int).SetString(a.Value, 10)
	if !ok {
		return 0, false
	}

	floatNum := new(big.Float).SetInt(num)
	divisor := new(big.Float).SetFloat64(math.Pow(10, float64(a.Decimals)))
	floatNum.Quo(floatNum, divisor)

	result, _ := floatNum.Float64()
	return result, true
}
