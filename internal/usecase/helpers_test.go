package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/usecase/mocks"
)

var today = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

func clock() time.Time {
	return today.Add(10 * time.Hour)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// expectTx wires a transaction that is begun once and may be rolled back.
func expectTx(txMgr *mocks.MockTransactionManager, tx *mocks.MockTransaction) {
	txMgr.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
}

func usdAccount() *domain.Account {
	return &domain.Account{
		ID:       "acc-1",
		FamilyID: "fam-1",
		Name:     "Checking",
		Type:     domain.AccountTypeDepository,
		Currency: "USD",
		Balance:  dec("1000"),
		Status:   domain.AccountStatusActive,
	}
}

func valuation(id, date, amount, currency string) *domain.Entry {
	return domain.NewValuationEntry(id, "acc-1", day(date), dec(amount), currency)
}

func transaction(id, date, amount, currency string) *domain.Entry {
	return &domain.Entry{
		ID:          id,
		AccountID:   "acc-1",
		Date:        day(date),
		Amount:      dec(amount),
		Currency:    currency,
		Name:        "Groceries",
		Kind:        domain.EntryKindTransaction,
		Transaction: &domain.Transaction{},
	}
}

func assertMoney(t *testing.T, got domain.Money, amount, currency string) {
	t.Helper()
	if got.Currency != currency || !got.Amount.Equal(dec(amount)) {
		t.Fatalf("expected %s %s, got %s %s", amount, currency, got.Amount, got.Currency)
	}
}

type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return "is numerically equal to " + m.want.String()
}

// decEq matches a decimal by value regardless of exponent.
func decEq(s string) gomock.Matcher {
	return decimalMatcher{want: dec(s)}
}
