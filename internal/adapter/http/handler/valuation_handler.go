package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/valuations/internal/adapter/http/dto"
	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/usecase"
)

// ValuationService defines the behavior needed by ValuationHandler.
type ValuationService interface {
	Create(ctx context.Context, familyID string, input usecase.CreateValuationInput) (*domain.ReconciliationResult, error)
	ConfirmCreate(ctx context.Context, familyID string, input usecase.CreateValuationInput) (*domain.ReconciliationResult, error)
	Get(ctx context.Context, familyID, entryID string) (*domain.Entry, error)
	Update(ctx context.Context, familyID, entryID string, input usecase.UpdateValuationInput) (*domain.ReconciliationResult, error)
	ConfirmUpdate(ctx context.Context, familyID, entryID string, input usecase.UpdateValuationInput) (*domain.ReconciliationResult, error)
}

// ValuationHandler handles valuation-related HTTP requests.
type ValuationHandler struct {
	valuationUC ValuationService
}

// NewValuationHandler creates a new ValuationHandler.
func NewValuationHandler(valuationUC ValuationService) *ValuationHandler {
	return &ValuationHandler{valuationUC: valuationUC}
}

// Create records a valuation.
func (h *ValuationHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, false)
}

// Confirm previews a valuation without saving it.
func (h *ValuationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, true)
}

func (h *ValuationHandler) create(w http.ResponseWriter, r *http.Request, dryRun bool) {
	familyID := chi.URLParam(r, "familyID")

	var req dto.CreateValuationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	call, status := h.valuationUC.Create, http.StatusCreated
	if dryRun {
		call, status = h.valuationUC.ConfirmCreate, http.StatusOK
	}

	result, err := call(r.Context(), familyID, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err, "failed to create valuation")
		return
	}

	writeReconciliation(w, status, result)
}

// Get retrieves a valuation by ID.
func (h *ValuationHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.valuationUC.Get(r.Context(), chi.URLParam(r, "familyID"), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "failed to get valuation")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Update changes a valuation's notes and, when given, its balance.
func (h *ValuationHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// ConfirmUpdate previews a valuation change without saving it.
func (h *ValuationHandler) ConfirmUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *ValuationHandler) update(w http.ResponseWriter, r *http.Request, dryRun bool) {
	familyID := chi.URLParam(r, "familyID")
	entryID := chi.URLParam(r, "id")

	var req dto.UpdateValuationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	call := h.valuationUC.Update
	if dryRun {
		call = h.valuationUC.ConfirmUpdate
	}

	result, err := call(r.Context(), familyID, entryID, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err, "failed to update valuation")
		return
	}

	writeReconciliation(w, http.StatusOK, result)
}
