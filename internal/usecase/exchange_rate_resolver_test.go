package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/usecase"
	"github.com/iho/valuations/internal/usecase/mocks"
)

func TestExchangeRateResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		setupMocks func(*mocks.MockEntryRepository, *mocks.MockExchangeRateRepository, *mocks.MockMetricsRecorder)
		wantRate   string
		wantSource domain.RateSource
	}{
		{
			name:       "same currency needs no lookup",
			from:       "EUR",
			setupMocks: func(*mocks.MockEntryRepository, *mocks.MockExchangeRateRepository, *mocks.MockMetricsRecorder) {},
			wantRate:   "1",
			wantSource: domain.RateSourceIdentity,
		},
		{
			name: "manual rate wins over automatic",
			from: "USD",
			setupMocks: func(entries *mocks.MockEntryRepository, _ *mocks.MockExchangeRateRepository, _ *mocks.MockMetricsRecorder) {
				entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(dec("0.90"), nil)
			},
			wantRate:   "0.90",
			wantSource: domain.RateSourceManual,
		},
		{
			name: "automatic rate when no manual rate",
			from: "USD",
			setupMocks: func(entries *mocks.MockEntryRepository, rates *mocks.MockExchangeRateRepository, _ *mocks.MockMetricsRecorder) {
				entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(decimal.Zero, domain.ErrExchangeRateNotFound)
				rates.EXPECT().Find(gomock.Any(), "USD", "EUR", today).Return(dec("0.92"), nil)
			},
			wantRate:   "0.92",
			wantSource: domain.RateSourceAutomatic,
		},
		{
			name: "falls back to one when nothing is known",
			from: "USD",
			setupMocks: func(entries *mocks.MockEntryRepository, rates *mocks.MockExchangeRateRepository, metrics *mocks.MockMetricsRecorder) {
				entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(decimal.Zero, domain.ErrExchangeRateNotFound)
				rates.EXPECT().Find(gomock.Any(), "USD", "EUR", today).Return(decimal.Zero, domain.ErrExchangeRateNotFound)
				metrics.EXPECT().RecordFXFallback("USD", "EUR")
			},
			wantRate:   "1",
			wantSource: domain.RateSourceFallback,
		},
		{
			name: "unreachable automatic source degrades to one",
			from: "USD",
			setupMocks: func(entries *mocks.MockEntryRepository, rates *mocks.MockExchangeRateRepository, metrics *mocks.MockMetricsRecorder) {
				entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(decimal.Zero, domain.ErrExchangeRateNotFound)
				rates.EXPECT().Find(gomock.Any(), "USD", "EUR", today).Return(decimal.Zero, errors.New("connection refused"))
				metrics.EXPECT().RecordFXFallback("USD", "EUR")
			},
			wantRate:   "1",
			wantSource: domain.RateSourceFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			entries := mocks.NewMockEntryRepository(ctrl)
			rates := mocks.NewMockExchangeRateRepository(ctrl)
			metrics := mocks.NewMockMetricsRecorder(ctrl)
			tt.setupMocks(entries, rates, metrics)

			resolver := usecase.NewExchangeRateResolver(entries, rates, metrics, zerolog.Nop())
			rate, source, err := resolver.Resolve(context.Background(), "acc-1", tt.from, "EUR", today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !rate.Equal(dec(tt.wantRate)) {
				t.Errorf("rate = %s, want %s", rate, tt.wantRate)
			}
			if source != tt.wantSource {
				t.Errorf("source = %s, want %s", source, tt.wantSource)
			}
		})
	}
}

func TestExchangeRateResolver_Resolve_ManualLookupErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	entries := mocks.NewMockEntryRepository(ctrl)
	boom := errors.New("boom")
	entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(decimal.Zero, boom)

	resolver := usecase.NewExchangeRateResolver(entries, nil, nil, zerolog.Nop())
	if _, _, err := resolver.Resolve(context.Background(), "acc-1", "USD", "EUR", today); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestExchangeRateResolver_Resolve_ManualRateIgnoresAsOf(t *testing.T) {
	ctrl := gomock.NewController(t)
	entries := mocks.NewMockEntryRepository(ctrl)
	rates := mocks.NewMockExchangeRateRepository(ctrl)
	// The rate sits on an entry dated after both lookups.
	entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(dec("0.9"), nil).Times(2)

	resolver := usecase.NewExchangeRateResolver(entries, rates, nil, zerolog.Nop())

	for _, asOf := range []time.Time{day("2020-01-01"), today} {
		rate, source, err := resolver.Resolve(context.Background(), "acc-1", "USD", "EUR", asOf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if source != domain.RateSourceManual || !rate.Equal(dec("0.9")) {
			t.Errorf("as of %s: got %s from %s, want 0.9 from manual", asOf.Format(domain.DateLayout), rate, source)
		}
	}
}

func TestExchangeRateResolver_ConvertEntry(t *testing.T) {
	tests := []struct {
		name   string
		entry  *domain.Entry
		rate   string
		to     string
		amount string
	}{
		{name: "same currency is unconverted", entry: valuation("e1", "2024-03-01", "1234.5678", "EUR"), to: "EUR", amount: "1234.5678"},
		{name: "ngn via manual rate", entry: valuation("e1", "2024-03-01", "10000", "NGN"), rate: "0.000556", to: "EUR", amount: "5.56"},
		{name: "usd via manual rate", entry: valuation("e1", "2024-03-01", "1000", "USD"), rate: "0.85", to: "EUR", amount: "850"},
		{name: "rounds product to cents", entry: transaction("t1", "2024-03-01", "33.33", "USD"), rate: "0.333333", to: "EUR", amount: "11.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			resolver := usecase.NewExchangeRateResolver(mocks.NewMockEntryRepository(ctrl), nil, nil, zerolog.Nop())

			if tt.rate != "" {
				tt.entry.ExchangeRate = decPtr(tt.rate)
			}

			got, err := resolver.ConvertEntry(context.Background(), tt.entry, tt.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tt.amount)) {
				t.Errorf("converted = %s, want %s", got, tt.amount)
			}
		})
	}
}

func TestExchangeRateResolver_ConvertEntry_UsesAccountRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	entries := mocks.NewMockEntryRepository(ctrl)
	entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(dec("0.9"), nil)

	resolver := usecase.NewExchangeRateResolver(entries, nil, nil, zerolog.Nop())

	got, err := resolver.ConvertEntry(context.Background(), transaction("t1", "2024-03-05", "100", "USD"), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("90")) {
		t.Errorf("converted = %s, want 90", got)
	}
}

func TestExchangeRateResolver_ConvertBalance(t *testing.T) {
	t.Run("zero balance is zero in target currency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := usecase.NewExchangeRateResolver(mocks.NewMockEntryRepository(ctrl), nil, nil, zerolog.Nop())

		account := usdAccount()
		account.Balance = decimal.Zero

		got, err := resolver.ConvertBalance(context.Background(), account, "EUR", today)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertMoney(t, got, "0", "EUR")
	})

	t.Run("fallback reports balance unconverted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		entries := mocks.NewMockEntryRepository(ctrl)
		entries.EXPECT().LatestManualRate(gomock.Any(), "acc-1", "EUR").Return(decimal.Zero, domain.ErrExchangeRateNotFound)

		resolver := usecase.NewExchangeRateResolver(entries, nil, nil, zerolog.Nop())

		got, err := resolver.ConvertBalance(context.Background(), usdAccount(), "EUR", today)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertMoney(t, got, "1000", "EUR")
	})
}
