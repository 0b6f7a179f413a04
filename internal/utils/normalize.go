package utils

import (
	"encoding/json"
	"strconv"
	"time"
)

// NormalizedToken is the canonical display shape for a registry token record.
type NormalizedToken struct {
	Address        string  `json:"address"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	DeployedAt     string  `json:"deployed_at"`
	ImageURL       string  `json:"image_url"`
	MarketCap      float64 `json:"market_cap"`
	PriceUSD       float64 `json:"price_usd"`
	PriceChange24h float64 `json:"price_change_24h"`
	Volume24h      float64 `json:"volume_24h"`
	ChainID        int64   `json:"chain_id"`
}

// NormalizeToken maps an arbitrary registry record into the canonical shape,
// substituting zero/empty defaults for anything missing. Total: never fails,
// never panics, a nil map yields the zero record.
func NormalizeToken(raw map[string]any) NormalizedToken {
	metrics := raw
	if pool, ok := raw["pool"].(map[string]any); ok {
		metrics = merged(raw, pool)
	}

	return NormalizedToken{
		Address:        stringField(raw, "contract_address", "contractAddress", "address", "token_address"),
		Name:           stringField(raw, "name", "token_name"),
		Symbol:         stringField(raw, "symbol", "ticker"),
		DeployedAt:     timeField(raw, "deployed_at", "deployedAt", "created_at", "createdAt", "timestamp"),
		ImageURL:       stringField(raw, "img_url", "image_url", "imageUrl", "image", "logo"),
		MarketCap:      floatField(metrics, "market_cap", "marketCap", "market_cap_usd"),
		PriceUSD:       floatField(metrics, "price_usd", "priceUsd", "price"),
		PriceChange24h: floatField(metrics, "price_change_24h", "priceChange24h", "change_24h"),
		Volume24h:      floatField(metrics, "volume_24h", "volume24h", "volume"),
		ChainID:        int64(floatField(raw, "chain_id", "chainId")),
	}
}

// merged overlays b on top of a without mutating either.
func merged(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func floatField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func timeField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			// Unix seconds from some registry endpoints.
			return time.Unix(int64(t), 0).UTC().Format(time.RFC3339)
		}
	}
	return ""
}
