package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/adapter/http/dto"
	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/usecase"
)

func TestNetWorthAcrossCurrencies(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	s := newStack(t)

	today := domain.Today()
	valuedOn := today.AddDate(0, 0, -2).Format(domain.DateLayout)

	family := s.db.CreateFamily(ctx, "Smiths", "USD")
	checking := s.db.CreateAccount(ctx, family.ID, "Checking", domain.AccountTypeDepository, "USD")
	savings := s.db.CreateAccount(ctx, family.ID, "Sparkonto", domain.AccountTypeDepository, "EUR")
	loan := s.db.CreateAccount(ctx, family.ID, "Car loan", domain.AccountTypeLoan, "USD")
	s.db.CreateExchangeRate(ctx, "EUR", "USD", today.AddDate(0, 0, -10), decimal.RequireFromString("1.2"))

	for accountID, balance := range map[string]string{checking.ID: "1000", savings.ID: "500", loan.ID: "300"} {
		result, err := s.reconciliation.CreateReconciliation(ctx, accountID, usecase.ReconciliationParams{
			Balance: balance,
			Date:    valuedOn,
		})
		if err != nil || !result.Success {
			t.Fatalf("failed to reconcile %s: %v %+v", accountID, err, result)
		}
		if err := s.sync.SyncAccount(ctx, accountID, nil); err != nil {
			t.Fatalf("failed to sync %s: %v", accountID, err)
		}
	}

	base := "/api/v1/families/" + family.ID

	t.Run("current net worth", func(t *testing.T) {
		w := s.do(t, http.MethodGet, base+"/net_worth/current", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		resp := decode[dto.NetWorthResponse](t, w)
		if resp.NetWorth.Currency != "USD" {
			t.Errorf("expected USD, got %s", resp.NetWorth.Currency)
		}
		// 1000 + 500 * 1.2 - 300
		assertAmount(t, "1300", resp.NetWorth.Amount)
	})

	t.Run("series over a custom range", func(t *testing.T) {
		start := today.AddDate(0, 0, -3).Format(domain.DateLayout)
		end := today.Format(domain.DateLayout)

		w := s.do(t, http.MethodGet, base+"/net_worth?start_date="+start+"&end_date="+end, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		resp := decode[dto.SeriesResponse](t, w)
		if len(resp.Values) != 4 {
			t.Fatalf("expected 4 daily values, got %d", len(resp.Values))
		}
		assertAmount(t, "0", resp.Values[0].Value.Amount)
		for _, v := range resp.Values[1:] {
			assertAmount(t, "1300", v.Value.Amount)
		}
		if resp.FavorableDirection != string(domain.FavorableUp) {
			t.Errorf("expected favorable direction up, got %s", resp.FavorableDirection)
		}
	})

	t.Run("half given range is rejected", func(t *testing.T) {
		w := s.do(t, http.MethodGet, base+"/net_worth?start_date="+valuedOn, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("account totals", func(t *testing.T) {
		w := s.do(t, http.MethodGet, base+"/account_totals", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		resp := decode[dto.AccountTotalsResponse](t, w)
		if len(resp.AssetAccounts) != 2 || len(resp.LiabilityAccounts) != 1 {
			t.Fatalf("expected 2 assets and 1 liability, got %d and %d", len(resp.AssetAccounts), len(resp.LiabilityAccounts))
		}

		for _, row := range resp.AssetAccounts {
			if row.AccountID == savings.ID {
				assertAmount(t, "500", row.Balance.Amount)
				assertAmount(t, "600", row.ConvertedBalance.Amount)
			}
		}
		// The sync events were applied directly and are still unpublished.
		if !resp.LiabilityAccounts[0].Syncing {
			t.Error("expected an account with a pending sync event to report syncing")
		}
	})

	t.Run("unknown family", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/families/missing/net_worth/current", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestNetWorthIsCached(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	s := newStack(t)

	family := s.db.CreateFamily(ctx, "Smiths", "USD")
	account := s.db.CreateAccount(ctx, family.ID, "Checking", domain.AccountTypeDepository, "USD")

	if _, err := s.reconciliation.CreateReconciliation(ctx, account.ID, usecase.ReconciliationParams{Balance: "100"}); err != nil {
		t.Fatalf("failed to reconcile: %v", err)
	}
	if err := s.sync.SyncAccount(ctx, account.ID, nil); err != nil {
		t.Fatalf("failed to sync: %v", err)
	}

	first, err := s.netWorth.NetWorth(ctx, family.ID)
	if err != nil {
		t.Fatalf("failed to compute net worth: %v", err)
	}

	keys, err := s.redis.Keys(ctx, "*").Result()
	if err != nil {
		t.Fatalf("failed to list redis keys: %v", err)
	}
	if len(keys) == 0 {
		t.Fatal("expected the net worth to be cached in redis")
	}

	second, err := s.netWorth.NetWorth(ctx, family.ID)
	if err != nil {
		t.Fatalf("failed to compute net worth: %v", err)
	}
	if !first.Amount.Equal(second.Amount) {
		t.Errorf("expected the cached value %s, got %s", first.Amount, second.Amount)
	}
}

func TestFutureDatedManualRateOverridesTotals(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	s := newStack(t)

	today := domain.Today()
	family := s.db.CreateFamily(ctx, "Smiths", "USD")
	savings := s.db.CreateAccount(ctx, family.ID, "Sparkonto", domain.AccountTypeDepository, "EUR")
	s.db.CreateExchangeRate(ctx, "EUR", "USD", today.AddDate(0, 0, -10), decimal.RequireFromString("1.2"))

	for _, params := range []usecase.ReconciliationParams{
		{Balance: "500", Date: today.Format(domain.DateLayout)},
		{Balance: "500", Date: today.AddDate(0, 0, 1).Format(domain.DateLayout), ExchangeRate: "1.5"},
	} {
		result, err := s.reconciliation.CreateReconciliation(ctx, savings.ID, params)
		if err != nil || !result.Success {
			t.Fatalf("failed to reconcile: %v %+v", err, result)
		}
	}
	if err := s.sync.SyncAccount(ctx, savings.ID, nil); err != nil {
		t.Fatalf("failed to sync: %v", err)
	}

	totals, err := s.totals.AccountTotals(ctx, family.ID)
	if err != nil {
		t.Fatalf("failed to compute totals: %v", err)
	}
	if len(totals.AssetAccounts) != 1 {
		t.Fatalf("expected 1 asset account, got %d", len(totals.AssetAccounts))
	}
	// The manual rate dated tomorrow wins over today's automatic 1.2.
	assertAmount(t, "750", totals.AssetAccounts[0].ConvertedBalance.Amount.String())
}
