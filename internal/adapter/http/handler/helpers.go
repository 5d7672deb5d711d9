package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/valuations/internal/adapter/http/dto"
	"github.com/iho/valuations/internal/domain"
)

// maxBodyBytes caps request bodies; valuation payloads are a few hundred bytes.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Message: details})
}

// writeDomainError answers with the status err maps to. Server errors are
// logged and their text withheld; the request ID lets support find the log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := mapDomainError(err)
	if status < http.StatusInternalServerError {
		writeError(w, status, message, err.Error())
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
	writeJSON(w, status, dto.ErrorResponse{
		Error:     message,
		RequestID: chimiddleware.GetReqID(r.Context()),
	})
}

// decodeJSON reads a single JSON document of bounded size into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// writeDecodeError reports a body decodeJSON rejected.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid request body", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
}

// writeReconciliation writes a reconciliation outcome. Validation failures
// are 422 with the user-facing message.
func writeReconciliation(w http.ResponseWriter, successStatus int, result *domain.ReconciliationResult) {
	if !result.Success {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", result.ErrorMessage)
		return
	}
	writeJSON(w, successStatus, dto.ReconciliationFromDomain(result))
}

func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrFamilyNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrNotValuation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateValuationDate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter, falling back to def when it is
// missing or malformed.
func queryInt(r *http.Request, key string, def int) int {
	i, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return i
}

// pagination reads limit and offset, clamped to the domain bounds.
func pagination(r *http.Request) (limit, offset int) {
	return domain.ValidatePagination(queryInt(r, "limit", 0), queryInt(r, "offset", 0))
}
