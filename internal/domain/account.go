package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the account subvariant; it determines the classification.
type AccountType string

const (
	AccountTypeDepository     AccountType = "depository"
	AccountTypeInvestment     AccountType = "investment"
	AccountTypeCrypto         AccountType = "crypto"
	AccountTypeProperty       AccountType = "property"
	AccountTypeVehicle        AccountType = "vehicle"
	AccountTypeOtherAsset     AccountType = "other_asset"
	AccountTypeCreditCard     AccountType = "credit_card"
	AccountTypeLoan           AccountType = "loan"
	AccountTypeOtherLiability AccountType = "other_liability"
)

// Classification groups accounts on the balance sheet.
type Classification string

const (
	ClassificationAsset     Classification = "asset"
	ClassificationLiability Classification = "liability"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive          AccountStatus = "active"
	AccountStatusDisabled        AccountStatus = "disabled"
	AccountStatusPendingDeletion AccountStatus = "pending_deletion"
)

// Account owns entries and a cached balance in its own currency.
type Account struct {
	ID        string
	FamilyID  string
	Name      string
	Type      AccountType
	Currency  string
	Balance   decimal.Decimal
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Classification derives asset/liability from the account type.
func (a *Account) Classification() Classification {
	switch a.Type {
	case AccountTypeCreditCard, AccountTypeLoan, AccountTypeOtherLiability:
		return ClassificationLiability
	default:
		return ClassificationAsset
	}
}

// Visible reports whether the account shows up on the balance sheet.
func (a *Account) Visible() bool {
	return a.Status == "" || a.Status == AccountStatusActive
}

// BalanceMoney returns the cached balance in the account currency.
func (a *Account) BalanceMoney() Money {
	return NewMoney(a.Balance, a.Currency)
}

// SignedBalance returns the balance as it contributes to net worth:
// liabilities subtract.
func (a *Account) SignedBalance(m Money) Money {
	if a.Classification() == ClassificationLiability {
		return m.Neg()
	}
	return m
}

// Family groups accounts under a single reporting currency.
type Family struct {
	ID        string
	Name      string
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
