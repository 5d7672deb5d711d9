package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/valuations/internal/domain"
)

const (
	viewNetWorthSeries  = "net_worth_series"
	viewNetWorthCurrent = "net_worth"
)

// AggregateConfig tunes caching of derived views.
type AggregateConfig struct {
	CacheTTL       time.Duration
	CacheStaleness time.Duration
}

func (c AggregateConfig) withDefaults() AggregateConfig {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.CacheStaleness <= 0 {
		c.CacheStaleness = DefaultCacheStaleness
	}
	return c
}

// NetWorthUseCase builds family net worth in the family currency.
type NetWorthUseCase struct {
	familyRepo  FamilyRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	resolver    *ExchangeRateResolver
	cache       Cache
	metrics     MetricsRecorder
	cfg         AggregateConfig
	now         func() time.Time
}

// NewNetWorthUseCase creates a new NetWorthUseCase. cache may be nil.
func NewNetWorthUseCase(
	familyRepo FamilyRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	resolver *ExchangeRateResolver,
	cache Cache,
	metrics MetricsRecorder,
	cfg AggregateConfig,
) *NetWorthUseCase {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &NetWorthUseCase{
		familyRepo:  familyRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		resolver:    resolver,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg.withDefaults(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (uc *NetWorthUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

func (uc *NetWorthUseCase) keys() cacheKeys {
	return cacheKeys{entryRepo: uc.entryRepo, staleness: uc.cfg.CacheStaleness, now: uc.now}
}

// NetWorthSeries returns one net worth point per day of period. Assets add,
// liabilities subtract.
func (uc *NetWorthUseCase) NetWorthSeries(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error) {
	period, err := period.Bounded(uc.now())
	if err != nil {
		return nil, err
	}

	family, err := uc.familyRepo.GetByID(ctx, familyID)
	if err != nil {
		return nil, err
	}

	key, err := uc.keys().key(ctx, familyID, viewNetWorthSeries, period.String())
	if err != nil {
		return nil, err
	}

	series, hit, err := FetchCached(ctx, uc.cache, key, uc.cfg.CacheTTL, func(ctx context.Context) (*domain.Series, error) {
		return uc.buildSeries(ctx, family, period)
	})
	uc.metrics.RecordCacheLookup(viewNetWorthSeries, hit)

	return series, err
}

func (uc *NetWorthUseCase) buildSeries(ctx context.Context, family *domain.Family, period domain.Period) (*domain.Series, error) {
	accounts, err := uc.accountRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByFamilyUpTo(ctx, family.ID, period.End)
	if err != nil {
		return nil, err
	}

	byAccount := make(map[string][]*domain.Entry)
	for _, e := range entries {
		byAccount[e.AccountID] = append(byAccount[e.AccountID], e)
	}

	days := period.Days()
	totals := make([]decimal.Decimal, len(days))
	memo := rateMemo{}
	convert := func(e *domain.Entry) (decimal.Decimal, error) {
		return uc.resolver.convertEntry(ctx, e, family.Currency, memo)
	}

	for _, account := range accounts {
		if !account.Visible() {
			continue
		}

		balances, err := domain.BalancesOver(byAccount[account.ID], days, convert)
		if err != nil {
			return nil, err
		}

		liability := account.Classification() == domain.ClassificationLiability
		for i, b := range balances {
			if liability {
				b = b.Neg()
			}
			totals[i] = totals[i].Add(b)
		}
	}

	values := make([]domain.SeriesValue, len(days))
	for i, day := range days {
		values[i] = domain.SeriesValue{
			Date:  day,
			Value: domain.NewMoney(totals[i], family.Currency).Round(),
		}
	}

	return domain.NewSeries(period, family.Currency, values, domain.FavorableUp), nil
}

// NetWorth returns current net worth from the accounts' cached balances.
func (uc *NetWorthUseCase) NetWorth(ctx context.Context, familyID string) (domain.Money, error) {
	family, err := uc.familyRepo.GetByID(ctx, familyID)
	if err != nil {
		return domain.Money{}, err
	}

	key, err := uc.keys().key(ctx, familyID, viewNetWorthCurrent)
	if err != nil {
		return domain.Money{}, err
	}

	total, hit, err := FetchCached(ctx, uc.cache, key, uc.cfg.CacheTTL, func(ctx context.Context) (domain.Money, error) {
		return uc.current(ctx, family)
	})
	uc.metrics.RecordCacheLookup(viewNetWorthCurrent, hit)

	return total, err
}

func (uc *NetWorthUseCase) current(ctx context.Context, family *domain.Family) (domain.Money, error) {
	accounts, err := uc.accountRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return domain.Money{}, err
	}

	today := domain.Day(uc.now())
	memo := rateMemo{}
	total := domain.Zero(family.Currency)

	for _, account := range accounts {
		if !account.Visible() {
			continue
		}

		converted, err := uc.resolver.convertBalance(ctx, account, family.Currency, today, memo)
		if err != nil {
			return domain.Money{}, err
		}
		total = total.Add(account.SignedBalance(converted))
	}

	return total.Round(), nil
}
