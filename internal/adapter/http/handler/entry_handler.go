package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/valuations/internal/adapter/http/dto"
	"github.com/iho/valuations/internal/domain"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	ListByAccount(ctx context.Context, familyID, accountID string, limit, offset int) ([]*domain.Entry, error)
	Delete(ctx context.Context, familyID, entryID string) error
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// ListByAccount lists entries for an account, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit, offset := pagination(r)

	entries, err := h.entryUC.ListByAccount(r.Context(), chi.URLParam(r, "familyID"), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, r, err, "failed to list entries")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Limit:   limit,
		Offset:  offset,
	})
}

// Delete removes an entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	if err := h.entryUC.Delete(r.Context(), chi.URLParam(r, "familyID"), entryID); err != nil {
		writeDomainError(w, r, err, "failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
