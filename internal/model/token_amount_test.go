package model

import (
	"testing"
)

func TestTokenAmount_ToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    TokenAmount
		expected float64
		ok       bool
	}{
		{
			name: "bep20 usdt 18 decimals",
			input: TokenAmount{
				Value:    "10000000000000000000",
				Decimals: 18,
			},
			expected: 10.0,
			ok:       true,
		},
		{
			name: "trc20 usdt 6 decimals",
			input: TokenAmount{
				Value:    "5005000",
				Decimals: 6,
			},
			expected: 5.005,
			ok:       true,
		},
		{
			name: "zero value",
			input: TokenAmount{
				Value:    "0",
				Decimals: 18,
			},
			expected: 0.0,
			ok:       true,
		},
		{
			name: "fractional unit",
			input: TokenAmount{
				Value:    "10005000000000000000",
				Decimals: 18,
			},
			expected: 10.005,
			ok:       true,
		},
		{
			name: "malformed raw value",
			input: TokenAmount{
				Value:    "0xdeadbeef",
				Decimals: 18,
			},
			expected: 0,
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := tt.input.ToFloat()
			if ok != tt.ok {
				t.Errorf("ToFloat() ok = %v, want %v", ok, tt.ok)
			}
			if result != tt.expected {
				t.Errorf("ToFloat() = %v, want %v", result, tt.expected)
			}
		})
	}
}
