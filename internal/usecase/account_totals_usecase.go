package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/domain"
)

const viewAccountTotals = "account_totals"

// AccountTotalsUseCase builds the balance sheet rows of a family.
type AccountTotalsUseCase struct {
	familyRepo  FamilyRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	resolver    *ExchangeRateResolver
	monitor     SyncStatusMonitor
	cache       Cache
	metrics     MetricsRecorder
	cfg         AggregateConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAccountTotalsUseCase creates a new AccountTotalsUseCase. cache and
// monitor may be nil.
func NewAccountTotalsUseCase(
	familyRepo FamilyRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	resolver *ExchangeRateResolver,
	monitor SyncStatusMonitor,
	cache Cache,
	metrics MetricsRecorder,
	cfg AggregateConfig,
	logger zerolog.Logger,
) *AccountTotalsUseCase {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &AccountTotalsUseCase{
		familyRepo:  familyRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		resolver:    resolver,
		monitor:     monitor,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (uc *AccountTotalsUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// AccountTotals returns visible accounts grouped into assets and liabilities
// with balances converted to the family currency.
//
// Converted rows are cached; the syncing flag is always read fresh.
func (uc *AccountTotalsUseCase) AccountTotals(ctx context.Context, familyID string) (*domain.AccountTotals, error) {
	family, err := uc.familyRepo.GetByID(ctx, familyID)
	if err != nil {
		return nil, err
	}

	keys := cacheKeys{entryRepo: uc.entryRepo, staleness: uc.cfg.CacheStaleness, now: uc.now}
	key, err := keys.key(ctx, familyID, viewAccountTotals)
	if err != nil {
		return nil, err
	}

	rows, hit, err := FetchCached(ctx, uc.cache, key, uc.cfg.CacheTTL, func(ctx context.Context) ([]domain.AccountRow, error) {
		return uc.rows(ctx, family)
	})
	uc.metrics.RecordCacheLookup(viewAccountTotals, hit)
	if err != nil {
		return nil, err
	}

	totals := domain.GroupAccountRows(family.Currency, rows)
	totals.MarkSyncing(uc.syncing(ctx, rows))

	return totals, nil
}

func (uc *AccountTotalsUseCase) rows(ctx context.Context, family *domain.Family) ([]domain.AccountRow, error) {
	accounts, err := uc.accountRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	today := domain.Day(uc.now())
	memo := rateMemo{}
	rows := make([]domain.AccountRow, 0, len(accounts))

	for _, account := range accounts {
		if !account.Visible() {
			continue
		}

		converted, err := uc.resolver.convertBalance(ctx, account, family.Currency, today, memo)
		if err != nil {
			return nil, err
		}

		rows = append(rows, domain.NewAccountRow(account, converted))
	}

	return rows, nil
}

func (uc *AccountTotalsUseCase) syncing(ctx context.Context, rows []domain.AccountRow) map[string]bool {
	if uc.monitor == nil || len(rows) == 0 {
		return nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.AccountID
	}

	syncing, err := uc.monitor.Syncing(ctx, ids)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("failed to read sync status")
		return nil
	}

	return syncing
}
