package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/adapter/http/dto"
	"github.com/iho/valuations/internal/domain"
)

type netWorthServiceStub struct {
	seriesFn  func(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error)
	currentFn func(ctx context.Context, familyID string) (domain.Money, error)
	totalsFn  func(ctx context.Context, familyID string) (*domain.AccountTotals, error)
}

func (s *netWorthServiceStub) NetWorthSeries(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error) {
	return s.seriesFn(ctx, familyID, period)
}

func (s *netWorthServiceStub) NetWorth(ctx context.Context, familyID string) (domain.Money, error) {
	return s.currentFn(ctx, familyID)
}

func (s *netWorthServiceStub) AccountTotals(ctx context.Context, familyID string) (*domain.AccountTotals, error) {
	return s.totalsFn(ctx, familyID)
}

func newTestNetWorthHandler(stub *netWorthServiceStub) *NetWorthHandler {
	h := NewNetWorthHandler(stub, stub)
	h.now = func() time.Time { return time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC) }
	return h
}

func TestNetWorthHandler_Series_PeriodSelection(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantStart string
		wantEnd   string
	}{
		{"default is last 30 days", "", "2024-02-14", "2024-03-15"},
		{"named period", "?period=current_month", "2024-03-01", "2024-03-15"},
		{"explicit range", "?start_date=2024-01-01&end_date=2024-01-31", "2024-01-01", "2024-01-31"},
		{"start before entry floor is clamped", "?start_date=0001-01-01&end_date=2024-03-15", "2014-03-15", "2024-03-15"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Period
			h := newTestNetWorthHandler(&netWorthServiceStub{
				seriesFn: func(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error) {
					got = period
					return domain.NewSeries(period, "USD", nil, domain.FavorableUp), nil
				},
			})

			req := withURLParams(httptest.NewRequest(http.MethodGet, "/net_worth"+tt.query, nil), map[string]string{"familyID": "fam-1"})
			rec := httptest.NewRecorder()
			h.Series(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got.Start.Format(domain.DateLayout) != tt.wantStart || got.End.Format(domain.DateLayout) != tt.wantEnd {
				t.Fatalf("expected %s..%s, got %s", tt.wantStart, tt.wantEnd, got)
			}
		})
	}
}

func TestNetWorthHandler_Series_InvalidPeriod(t *testing.T) {
	queries := []string{
		"?period=forever",
		"?start_date=2024-01-01",
		"?start_date=2024-02-01&end_date=2024-01-01",
		"?start_date=yesterday&end_date=2024-01-01",
		"?start_date=0001-01-01&end_date=9999-12-31",
		"?start_date=2000-01-01&end_date=2010-12-31",
	}

	for _, q := range queries {
		h := newTestNetWorthHandler(&netWorthServiceStub{
			seriesFn: func(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error) {
				t.Fatalf("service should not be called for %s", q)
				return nil, nil
			},
		})

		req := withURLParams(httptest.NewRequest(http.MethodGet, "/net_worth"+q, nil), map[string]string{"familyID": "fam-1"})
		rec := httptest.NewRecorder()
		h.Series(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestNetWorthHandler_Series_Body(t *testing.T) {
	h := newTestNetWorthHandler(&netWorthServiceStub{
		seriesFn: func(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error) {
			return domain.NewSeries(period, "USD", []domain.SeriesValue{
				{Date: period.Start, Value: domain.NewMoney(decimal.NewFromInt(200), "USD")},
				{Date: period.End, Value: domain.NewMoney(decimal.NewFromInt(150), "USD")},
			}, domain.FavorableUp), nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/net_worth?period=last_day", nil), map[string]string{"familyID": "fam-1"})
	rec := httptest.NewRecorder()
	h.Series(rec, req)

	var resp dto.SeriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Values) != 2 || resp.Trend.Value.Amount != "-50" {
		t.Fatalf("unexpected series: %+v", resp)
	}
	if resp.Trend.Percent == nil || *resp.Trend.Percent != "-25" {
		t.Fatalf("expected -25 percent, got %v", resp.Trend.Percent)
	}
}

func TestNetWorthHandler_Current(t *testing.T) {
	h := newTestNetWorthHandler(&netWorthServiceStub{
		currentFn: func(ctx context.Context, familyID string) (domain.Money, error) {
			return domain.NewMoney(decimal.RequireFromString("1234.5"), "USD"), nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/net_worth/current", nil), map[string]string{"familyID": "fam-1"})
	rec := httptest.NewRecorder()
	h.Current(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.NetWorthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.NetWorth.Formatted != "$1,234.50" {
		t.Fatalf("unexpected net worth: %+v", resp.NetWorth)
	}
}

func TestNetWorthHandler_UnknownFamily(t *testing.T) {
	h := newTestNetWorthHandler(&netWorthServiceStub{
		currentFn: func(ctx context.Context, familyID string) (domain.Money, error) {
			return domain.Money{}, domain.ErrFamilyNotFound
		},
		totalsFn: func(ctx context.Context, familyID string) (*domain.AccountTotals, error) {
			return nil, domain.ErrFamilyNotFound
		},
	})

	for _, serve := range []http.HandlerFunc{h.Current, h.AccountTotals} {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"familyID": "nope"})
		rec := httptest.NewRecorder()
		serve(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	}
}

func TestNetWorthHandler_AccountTotals(t *testing.T) {
	h := newTestNetWorthHandler(&netWorthServiceStub{
		totalsFn: func(ctx context.Context, familyID string) (*domain.AccountTotals, error) {
			return domain.GroupAccountRows("USD", []domain.AccountRow{
				{AccountID: "acc-1", Classification: domain.ClassificationAsset, Balance: domain.Zero("USD"), ConvertedBalance: domain.Zero("USD")},
			}), nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/account_totals", nil), map[string]string{"familyID": "fam-1"})
	rec := httptest.NewRecorder()
	h.AccountTotals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.AccountTotalsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.AssetAccounts) != 1 || len(resp.LiabilityAccounts) != 0 {
		t.Fatalf("unexpected totals: %+v", resp)
	}
}

func TestNetWorthHandler_AccountTotals_ServiceError(t *testing.T) {
	h := newTestNetWorthHandler(&netWorthServiceStub{
		totalsFn: func(ctx context.Context, familyID string) (*domain.AccountTotals, error) {
			return nil, errors.New("db down")
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/account_totals", nil), map[string]string{"familyID": "fam-1"})
	rec := httptest.NewRecorder()
	h.AccountTotals(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
