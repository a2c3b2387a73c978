package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileFromQuote(t *testing.T) {
	quote := &StockQuote{
		Symbol:    "NVDA",
		Name:      "NVIDIA Corporation",
		Price:     920.5,
		MarketCap: 2300000000000,
	}

	profile := ProfileFromQuote(quote)
	require.Equal(t, "NVDA", profile.Symbol)
	require.Equal(t, "NVIDIA Corporation", profile.CompanyName)
	require.Equal(t, 920.5, profile.Price)
	require.Equal(t, float64(2300000000000), profile.MarketCap)
	require.Equal(t, FieldUnavailable, profile.Sector)
	require.Equal(t, FieldUnavailable, profile.Industry)
	require.Equal(t, FieldUnavailable, profile.CEO)
	require.Equal(t, FieldUnavailable, profile.Website)
	require.Equal(t, DescriptionUnavailable, profile.Description)
}

func TestKeyMetricsOverlay(t *testing.T) {
	pe := 28.4
	roe := 1.52
	dy := 0.0055
	eps := 6.1
	epsOverlay := 6.42

	base := &KeyMetrics{Symbol: "AAPL", PERatio: &pe, EPS: &eps, DividendYield: &dy}
	overlay := &KeyMetrics{Symbol: "AAPL", EPS: &epsOverlay, ROE: &roe}

	base.Overlay(overlay)

	require.Equal(t, 28.4, *base.PERatio)
	require.Equal(t, 6.42, *base.EPS, "overlay values win on collision")
	require.Equal(t, 1.52, *base.ROE)
	require.Equal(t, 0.0055, *base.DividendYield)
	require.Nil(t, base.DebtToEquity)
}

func TestKeyMetricsOverlayNil(t *testing.T) {
	pe := 15.0
	base := &KeyMetrics{Symbol: "TPC", PERatio: &pe}
	base.Overlay(nil)
	require.Equal(t, 15.0, *base.PERatio)
}

func TestMarketNewsValid(t *testing.T) {
	article := MarketNews{
		Title: "Apple unveils new chip",
		Date:  "2025-06-10 12:00:00",
		Site:  "reuters.com",
		Text:  "Apple announced a new processor line.",
		URL:   "https://example.com/apple-chip",
	}
	require.True(t, article.Valid())

	article.URL = ""
	require.False(t, article.Valid())
}
