package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/ctxkeys"
	"github.com/pennypet/server/internal/repository"
	"github.com/pennypet/server/internal/service"
	"github.com/pennypet/server/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error          string           `json:"error"`
	Code           string           `json:"code"`
	NextEligibleAt *time.Time       `json:"next_eligible_at,omitempty"`
	MissingAmount  *decimal.Decimal `json:"missing_amount,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
		return false
	}

	return true
}

// writeError maps service errors to a status and a stable error code clients can
// switch on. TooEarly and OverAmendment carry the data needed to explain them.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		tooEarly *service.TooEarlyError
		over     *service.OverAmendmentError
		invalid  validation.Error
	)

	switch {
	case errors.As(err, &tooEarly):
		next := tooEarly.NextEligibleAt.UTC()
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:          service.ErrTooEarly.Error(),
			Code:           "too_early",
			NextEligibleAt: &next,
		})
	case errors.As(err, &over):
		missing := over.Missing
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:         service.ErrOverAmendment.Error(),
			Code:          "over_amendment",
			MissingAmount: &missing,
		})
	case errors.Is(err, service.ErrInvalidAmount):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_amount"})
	case errors.Is(err, service.ErrInvalidContributionType):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_type"})
	case errors.Is(err, service.ErrInvalidGoal):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_goal"})
	case errors.As(err, &invalid), errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidPet):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_input"})
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "unauthenticated"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: service.ErrInvalidCredentials.Error(), Code: "invalid_credentials"})
	case errors.Is(err, repository.ErrGoalNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "goal_not_found"})
	case errors.Is(err, repository.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "profile_not_found"})
	case errors.Is(err, service.ErrCostumeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "costume_not_found"})
	case errors.Is(err, repository.ErrInsufficientCoins):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "insufficient_coins"})
	case errors.Is(err, repository.ErrCostumeOwned):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "costume_owned"})
	case errors.Is(err, service.ErrCostumeLocked):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "costume_locked"})
	case errors.Is(err, service.ErrEmailAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "email_taken"})
	case errors.Is(err, service.ErrStoreFailure):
		slog.Error("store failure", "error", err, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable, please retry", Code: "store_failure"})
	default:
		slog.Error("request failed", "error", err, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}
