package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FavorableDirection tells the UI which way of movement is good news.
type FavorableDirection string

const (
	FavorableUp   FavorableDirection = "up"
	FavorableDown FavorableDirection = "down"
)

// SeriesValue is one point of a balance series.
type SeriesValue struct {
	Date  time.Time `json:"date"`
	Value Money     `json:"value"`
}

// Trend compares the last point with the first.
type Trend struct {
	Current  Money            `json:"current"`
	Previous Money            `json:"previous"`
	Value    Money            `json:"value"`
	Percent  *decimal.Decimal `json:"percent"`
}

// Series is an ordered sequence of daily balances.
type Series struct {
	Period             Period             `json:"period"`
	Currency           string             `json:"currency"`
	Values             []SeriesValue      `json:"values"`
	FavorableDirection FavorableDirection `json:"favorable_direction"`
	Trend              Trend              `json:"trend"`
}

var hundred = decimal.NewFromInt(100)

// NewSeries builds a series and its trend. values must be in currency.
func NewSeries(period Period, currency string, values []SeriesValue, direction FavorableDirection) *Series {
	s := &Series{
		Period:             period,
		Currency:           currency,
		Values:             values,
		FavorableDirection: direction,
	}
	s.Trend = newTrend(currency, values)
	return s
}

func newTrend(currency string, values []SeriesValue) Trend {
	if len(values) == 0 {
		z := Zero(currency)
		return Trend{Current: z, Previous: z, Value: z}
	}

	prev := values[0].Value
	cur := values[len(values)-1].Value
	t := Trend{Current: cur, Previous: prev, Value: cur.Sub(prev)}

	if !prev.IsZero() {
		pct := t.Value.Amount.Div(prev.Amount.Abs()).Mul(hundred).Round(1)
		t.Percent = &pct
	}

	return t
}
