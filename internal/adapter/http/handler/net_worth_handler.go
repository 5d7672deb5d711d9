package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/valuations/internal/adapter/http/dto"
	"github.com/iho/valuations/internal/domain"
)

// NetWorthService defines the behavior needed by NetWorthHandler.
type NetWorthService interface {
	NetWorthSeries(ctx context.Context, familyID string, period domain.Period) (*domain.Series, error)
	NetWorth(ctx context.Context, familyID string) (domain.Money, error)
}

// AccountTotalsService defines the behavior needed by NetWorthHandler.
type AccountTotalsService interface {
	AccountTotals(ctx context.Context, familyID string) (*domain.AccountTotals, error)
}

// NetWorthHandler serves the family-level aggregates.
type NetWorthHandler struct {
	netWorthUC NetWorthService
	totalsUC   AccountTotalsService
	now        func() time.Time
}

// NewNetWorthHandler creates a new NetWorthHandler.
func NewNetWorthHandler(netWorthUC NetWorthService, totalsUC AccountTotalsService) *NetWorthHandler {
	return &NetWorthHandler{
		netWorthUC: netWorthUC,
		totalsUC:   totalsUC,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Series returns the daily net worth series. The range comes from either
// start_date and end_date or a named period, defaulting to the last 30 days.
func (h *NetWorthHandler) Series(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	series, err := h.netWorthUC.NetWorthSeries(r.Context(), chi.URLParam(r, "familyID"), period)
	if err != nil {
		writeDomainError(w, r, err, "failed to build net worth series")
		return
	}

	writeJSON(w, http.StatusOK, dto.SeriesFromDomain(series))
}

// Current returns today's net worth.
func (h *NetWorthHandler) Current(w http.ResponseWriter, r *http.Request) {
	total, err := h.netWorthUC.NetWorth(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		writeDomainError(w, r, err, "failed to compute net worth")
		return
	}

	writeJSON(w, http.StatusOK, dto.NetWorthResponse{NetWorth: dto.MoneyFromDomain(total)})
}

// AccountTotals returns the family balance sheet.
func (h *NetWorthHandler) AccountTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.totalsUC.AccountTotals(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		writeDomainError(w, r, err, "failed to compute account totals")
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTotalsFromDomain(totals))
}

func (h *NetWorthHandler) period(r *http.Request) (domain.Period, error) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")

	if start == "" && end == "" {
		return domain.ParsePeriod(q.Get("period"), h.now())
	}
	if start == "" || end == "" {
		return domain.Period{}, fmt.Errorf("%w: start_date and end_date must be given together", domain.ErrInvalidPeriod)
	}

	from, err := domain.ParseDate(start)
	if err != nil {
		return domain.Period{}, fmt.Errorf("%w: start_date: %v", domain.ErrInvalidPeriod, err)
	}
	to, err := domain.ParseDate(end)
	if err != nil {
		return domain.Period{}, fmt.Errorf("%w: end_date: %v", domain.ErrInvalidPeriod, err)
	}

	period, err := domain.NewPeriod(from, to)
	if err != nil {
		return domain.Period{}, err
	}

	return period.Bounded(h.now())
}
