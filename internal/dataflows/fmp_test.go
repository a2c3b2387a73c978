package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *FMPClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		FMPAPIKey:    "test-key",
		DataCacheDir: t.TempDir(),
		CacheEnabled: false,
	}

	client, err := newFMPClient(cfg, server.URL)
	require.NoError(t, err)
	client.retry = &RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}
	return client
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func TestNewFMPClientRequiresAPIKey(t *testing.T) {
	cfg := &config.Config{DataCacheDir: t.TempDir()}
	_, err := NewFMPClient(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "FMP_API_KEY")
}

func TestGetCompanyProfilePrimaryEndpoint(t *testing.T) {
	var quoteCalls atomic.Int32
	var gotAPIKey string

	mux := http.NewServeMux()
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.URL.Query().Get("apikey")
		writeJSON(w, `[{"symbol":"AAPL","companyName":"Apple Inc.","price":190.5,"marketCap":2950000000000,
			"description":"Designs consumer electronics.","sector":"Technology","industry":"Consumer Electronics",
			"ceo":"Timothy Cook","website":"https://www.apple.com"}]`)
	})
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		quoteCalls.Add(1)
		writeJSON(w, `[]`)
	})

	client := newTestClient(t, mux)

	profile, err := client.GetCompanyProfile(context.Background(), "aapl")
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "Apple Inc.", profile.CompanyName)
	require.Equal(t, "Technology", profile.Sector)
	require.Equal(t, "test-key", gotAPIKey)
	require.Zero(t, quoteCalls.Load(), "no fallback when the profile endpoint answers")
}

func TestGetCompanyProfileFallsBackToQuote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"TPC","name":"Tutor Perini Corporation","price":52.3,"marketCap":2700000000}]`)
	})

	client := newTestClient(t, mux)

	profile, err := client.GetCompanyProfile(context.Background(), "TPC")
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "Tutor Perini Corporation", profile.CompanyName)
	require.Equal(t, 52.3, profile.Price)
	require.Equal(t, models.FieldUnavailable, profile.Sector)
	require.Equal(t, models.FieldUnavailable, profile.Industry)
	require.Equal(t, models.FieldUnavailable, profile.CEO)
	require.Equal(t, models.FieldUnavailable, profile.Website)
	require.Equal(t, models.DescriptionUnavailable, profile.Description)
}

func TestGetCompanyProfileHTTPErrorDegradesToFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"Error Message":"Legacy Endpoint"}`, http.StatusForbidden)
	})
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"NVDA","name":"NVIDIA Corporation","price":920.5,"marketCap":2300000000000}]`)
	})

	client := newTestClient(t, mux)

	profile, err := client.GetCompanyProfile(context.Background(), "NVDA")
	require.NoError(t, err, "upstream faults must not raise past the client")
	require.NotNil(t, profile)
	require.Equal(t, "NVIDIA Corporation", profile.CompanyName)
}

func TestGetCompanyProfileBothEndpointsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	client := newTestClient(t, mux)

	profile, err := client.GetCompanyProfile(context.Background(), "ZZZZ")
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestGetCompanyProfileRejectsInvalidTicker(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.GetCompanyProfile(context.Background(), "")
	require.Error(t, err)

	_, err = client.GetCompanyProfile(context.Background(), "WAYTOOLONGTICKER")
	require.Error(t, err)
}

func TestGetKeyMetricsMergesDisjointFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ratios-ttm", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"AAPL","priceToEarningsRatioTTM":28.4,"debtToEquityRatioTTM":1.87,"dividendYieldTTM":0.0055}]`)
	})
	mux.HandleFunc("/key-metrics-ttm", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"AAPL","netIncomePerShareTTM":6.42,"returnOnEquityTTM":1.52}]`)
	})

	client := newTestClient(t, mux)

	metrics, err := client.GetKeyMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, metrics)
	require.Equal(t, 28.4, *metrics.PERatio)
	require.Equal(t, 1.87, *metrics.DebtToEquity)
	require.Equal(t, 0.0055, *metrics.DividendYield)
	require.Equal(t, 6.42, *metrics.EPS)
	require.Equal(t, 1.52, *metrics.ROE)
}

func TestGetKeyMetricsSecondEndpointWinsCollision(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ratios-ttm", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"AAPL","netIncomePerShareTTM":6.10}]`)
	})
	mux.HandleFunc("/key-metrics-ttm", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"symbol":"AAPL","netIncomePerShareTTM":6.42}]`)
	})

	client := newTestClient(t, mux)

	metrics, err := client.GetKeyMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, metrics)
	require.Equal(t, 6.42, *metrics.EPS)
}

func TestGetKeyMetricsBothEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	client := newTestClient(t, mux)

	metrics, err := client.GetKeyMetrics(context.Background(), "ZZZZ")
	require.NoError(t, err)
	require.Nil(t, metrics, "empty endpoints mean data unavailable, not a fault")
}

func TestGetStockNewsDropsInvalidItems(t *testing.T) {
	var gotSymbols, gotLimit string

	mux := http.NewServeMux()
	mux.HandleFunc("/news/stock", func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbols")
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(w, `[
			{"title":"Apple unveils new chip","publishedDate":"2025-06-10 12:00:00","site":"reuters.com","text":"Apple announced.","url":"https://example.com/a"},
			{"title":"Broken item","publishedDate":"2025-06-10 13:00:00","site":"cnbc.com","text":"No URL field."},
			{"title":"Apple supplier update","publishedDate":"2025-06-10 14:00:00","site":"wsj.com","text":"Supply chain.","url":"https://example.com/c"}
		]`)
	})

	client := newTestClient(t, mux)

	news, err := client.GetStockNews(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, news, 2, "one invalid item out of three leaves two")
	require.Equal(t, "Apple unveils new chip", news[0].Title)
	require.Equal(t, "Apple supplier update", news[1].Title)
	require.Equal(t, "AAPL", gotSymbols)
	require.Equal(t, "5", gotLimit)
}

func TestGetPressReleasesDropsInvalidItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news/press-releases", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[
			{"symbol":"TPC","date":"2025-05-01 09:00:00","title":"Tutor Perini wins $900M contract","text":"Full text."},
			{"symbol":"TPC","date":"2025-04-15 09:00:00","title":"Missing text field"}
		]`)
	})

	client := newTestClient(t, mux)

	releases, err := client.GetPressReleases(context.Background(), "TPC", 10)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, "Tutor Perini wins $900M contract", releases[0].Title)
}

func TestGetFinancialStatementsPartialFanOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/income-statement", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
	mux.HandleFunc("/balance-sheet-statement", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"date":"2024-12-31","symbol":"AAPL","period":"FY","totalAssets":411976000000}]`)
	})
	mux.HandleFunc("/cash-flow-statement", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"date":"2024-12-31","symbol":"AAPL","period":"FY","freeCashFlow":108807000000}]`)
	})

	client := newTestClient(t, mux)

	bundle, err := client.GetFinancialStatements(context.Background(), "AAPL", 4)
	require.NoError(t, err, "a failing leg must not fail the whole fan-out")
	require.NotNil(t, bundle)
	require.Empty(t, bundle.IncomeStatement)
	require.Len(t, bundle.BalanceSheet, 1)
	require.Len(t, bundle.CashFlow, 1)

	assets, ok := bundle.BalanceSheet[0].Extra("totalAssets")
	require.True(t, ok)
	require.Equal(t, float64(411976000000), assets)
}

func TestGetFinancialStatementsAllEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	client := newTestClient(t, mux)

	bundle, err := client.GetFinancialStatements(context.Background(), "ZZZZ", 4)
	require.NoError(t, err)
	require.Nil(t, bundle)
}

func TestGetEarningsTranscriptResolvesLatestCall(t *testing.T) {
	var gotYear, gotQuarter string

	mux := http.NewServeMux()
	mux.HandleFunc("/earning-call-transcript-dates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"quarter":3,"fiscalYear":2025,"date":"2025-08-05"},{"quarter":2,"fiscalYear":2025,"date":"2025-05-06"}]`)
	})
	mux.HandleFunc("/earning-call-transcript", func(w http.ResponseWriter, r *http.Request) {
		gotYear = r.URL.Query().Get("year")
		gotQuarter = r.URL.Query().Get("quarter")
		writeJSON(w, `[{"symbol":"AAPL","quarter":3,"year":2025,"date":"2025-08-05","content":"Operator: Good afternoon."}]`)
	})

	client := newTestClient(t, mux)

	transcript, err := client.GetEarningsTranscript(context.Background(), "AAPL", 0, 0)
	require.NoError(t, err)
	require.NotNil(t, transcript)
	require.Equal(t, "Operator: Good afternoon.", transcript.Content)
	require.Equal(t, "2025", gotYear)
	require.Equal(t, "3", gotQuarter)
}

func TestGetEarningsTranscriptNoCallsAvailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	client := newTestClient(t, mux)

	transcript, err := client.GetEarningsTranscript(context.Background(), "ZZZZ", 0, 0)
	require.NoError(t, err)
	require.Nil(t, transcript)
}

func TestGetRevenueSegmentation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/revenue-product-segmentation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"date":"2024-09-28","data":{"iPhone":201183000000,"Mac":29984000000}}]`)
	})
	mux.HandleFunc("/revenue-geographic-segmentation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"date":"2024-09-28","data":{"Americas":167045000000}}]`)
	})

	client := newTestClient(t, mux)

	product, geographic, err := client.GetRevenueSegmentation(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, product, 1)
	require.Len(t, geographic, 1)
	require.Equal(t, float64(29984000000), product[0].Data["Mac"])
}

func TestGetAnalystEstimatesDefaults(t *testing.T) {
	var gotPeriod, gotLimit string

	mux := http.NewServeMux()
	mux.HandleFunc("/analyst-estimates", func(w http.ResponseWriter, r *http.Request) {
		gotPeriod = r.URL.Query().Get("period")
		gotLimit = r.URL.Query().Get("limit")
		writeJSON(w, `[
			{"symbol":"AAPL","date":"2026-09-30","revenueAvg":420000000000,"epsAvg":7.9},
			{"symbol":"AAPL","revenueAvg":1}
		]`)
	})

	client := newTestClient(t, mux)

	estimates, err := client.GetAnalystEstimates(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, estimates, 1, "the dateless record is dropped")
	require.Equal(t, "annual", gotPeriod)
	require.Equal(t, "5", gotLimit)
	require.Equal(t, 7.9, *estimates[0].EPSAvg)
}

func TestGetInstitutionalHoldersDropsNameless(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/institutional-ownership/extract-analytics/holder", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[
			{"investorName":"VANGUARD GROUP INC","symbol":"AAPL","sharesNumber":1310000000},
			{"symbol":"AAPL","sharesNumber":42}
		]`)
	})

	client := newTestClient(t, mux)

	holders, err := client.GetInstitutionalHolders(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	require.Equal(t, "VANGUARD GROUP INC", holders[0].InvestorName)
}

func TestGetCompanyProfileStopsOnCancelledContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	client := newTestClient(t, mux)
	// hour-long backoff: the run only finishes promptly if the cancelled
	// context aborts the retries
	client.retry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1.0}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	profile, err := client.GetCompanyProfile(ctx, "AAPL")
	require.NoError(t, err, "a cancelled request degrades to empty like any upstream fault")
	require.Nil(t, profile)
	require.Less(t, time.Since(start), time.Minute, "no retry attempts after cancellation")
}

func TestGetCompanyProfileUsesCache(t *testing.T) {
	var profileCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		writeJSON(w, `[{"symbol":"AAPL","companyName":"Apple Inc.","price":190.5,"marketCap":2950000000000,
			"description":"d","sector":"Technology","industry":"Consumer Electronics"}]`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		FMPAPIKey:    "test-key",
		DataCacheDir: t.TempDir(),
		CacheEnabled: true,
	}
	client, err := newFMPClient(cfg, server.URL)
	require.NoError(t, err)

	first, err := client.GetCompanyProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := client.GetCompanyProfile(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, first.CompanyName, second.CompanyName)
	require.Equal(t, int32(1), profileCalls.Load(), "second lookup must come from cache")
}
