package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected NormalizedToken
	}{
		{
			name:     "nil map yields zero record",
			raw:      nil,
			expected: NormalizedToken{},
		},
		{
			name:     "empty map yields zero record",
			raw:      map[string]any{},
			expected: NormalizedToken{},
		},
		{
			name: "canonical field names",
			raw: map[string]any{
				"contract_address": "0xabc",
				"name":             "Foo Token",
				"symbol":           "FOO",
				"deployed_at":      "2026-01-02T03:04:05Z",
				"img_url":          "https://img.example/foo.png",
				"market_cap":       1234.5,
				"price_usd":        0.25,
				"price_change_24h": -3.5,
				"volume_24h":       99.0,
				"chain_id":         8453.0,
			},
			expected: NormalizedToken{
				Address:        "0xabc",
				Name:           "Foo Token",
				Symbol:         "FOO",
				DeployedAt:     "2026-01-02T03:04:05Z",
				ImageURL:       "https://img.example/foo.png",
				MarketCap:      1234.5,
				PriceUSD:       0.25,
				PriceChange24h: -3.5,
				Volume24h:      99.0,
				ChainID:        8453,
			},
		},
		{
			name: "camelCase aliases and string numbers",
			raw: map[string]any{
				"address":   "0xdef",
				"imageUrl":  "https://img.example/bar.jpg",
				"marketCap": "1000.25",
				"priceUsd":  "0.5",
				"chainId":   "8453",
				"name":      "Bar",
				"ticker":    "BAR",
			},
			expected: NormalizedToken{
				Address:   "0xdef",
				Name:      "Bar",
				Symbol:    "BAR",
				ImageURL:  "https://img.example/bar.jpg",
				MarketCap: 1000.25,
				PriceUSD:  0.5,
				ChainID:   8453,
			},
		},
		{
			name: "metrics nested under pool",
			raw: map[string]any{
				"address": "0x123",
				"name":    "Pooled",
				"pool": map[string]any{
					"price_usd":  1.5,
					"volume_24h": 42.0,
				},
			},
			expected: NormalizedToken{
				Address:  "0x123",
				Name:     "Pooled",
				PriceUSD: 1.5,
				Volume24h: 42.0,
			},
		},
		{
			name: "unix timestamp deploy time",
			raw: map[string]any{
				"name":      "Timed",
				"timestamp": 1700000000.0,
			},
			expected: NormalizedToken{
				Name:       "Timed",
				DeployedAt: "2023-11-14T22:13:20Z",
			},
		},
		{
			name: "garbage values fall back to defaults",
			raw: map[string]any{
				"name":       12345,
				"market_cap": "not-a-number",
				"symbol":     nil,
			},
			expected: NormalizedToken{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeToken(tt.raw))
		})
	}
}
