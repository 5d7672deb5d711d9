package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is an automatic market rate for one day.
type ExchangeRate struct {
	From string
	To   string
	Date time.Time
	Rate decimal.Decimal
}

// RateSource tells where a resolved rate came from.
type RateSource string

const (
	RateSourceIdentity  RateSource = "identity"
	RateSourceManual    RateSource = "manual"
	RateSourceAutomatic RateSource = "automatic"
	RateSourceFallback  RateSource = "fallback"
)

// IdentityRate is used for same-currency pairs and when no rate is known.
var IdentityRate = decimal.NewFromInt(1)
