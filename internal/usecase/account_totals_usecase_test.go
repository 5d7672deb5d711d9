package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/valuations/internal/usecase"
)

func (f *aggregateFixture) accountTotals() *usecase.AccountTotalsUseCase {
	uc := usecase.NewAccountTotalsUseCase(f.families, f.accounts, f.entries, f.resolver, f.monitor, f.cache, f.metrics, usecase.AggregateConfig{}, zerolog.Nop())
	uc.SetClock(clock)
	return uc
}

func TestAccountTotalsUseCase_AccountTotals(t *testing.T) {
	f := newAggregateFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.accounts.EXPECT().ListByFamily(gomock.Any(), "fam-1").Return(familyAccounts(), nil)
	f.entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(dec("0.9"), nil)
	f.monitor.EXPECT().Syncing(gomock.Any(), []string{"acc-1", "acc-2"}).Return(map[string]bool{"acc-2": true}, nil)

	totals, err := f.accountTotals().AccountTotals(context.Background(), "fam-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(totals.AssetAccounts) != 1 || len(totals.LiabilityAccounts) != 1 {
		t.Fatalf("hidden accounts must be skipped, got %+v", totals)
	}

	checking := totals.AssetAccounts[0]
	assertMoney(t, checking.Balance, "1000", "USD")
	assertMoney(t, checking.ConvertedBalance, "900", "EUR")
	if checking.Syncing {
		t.Error("checking should not be syncing")
	}

	loan := totals.LiabilityAccounts[0]
	assertMoney(t, loan.ConvertedBalance, "5000", "EUR")
	if !loan.Syncing {
		t.Error("loan should be syncing")
	}
}

func TestAccountTotalsUseCase_SyncStatusFailureIsIgnored(t *testing.T) {
	f := newAggregateFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.accounts.EXPECT().ListByFamily(gomock.Any(), "fam-1").Return(familyAccounts()[1:], nil)
	f.monitor.EXPECT().Syncing(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	totals, err := f.accountTotals().AccountTotals(context.Background(), "fam-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(totals.LiabilityAccounts) != 1 || totals.LiabilityAccounts[0].Syncing {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.AssetAccounts == nil {
		t.Error("empty groups should serialise as empty lists")
	}
}
