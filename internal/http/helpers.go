package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"finboard/internal/core"
	flog "finboard/internal/log"
)

// wireErrors maps sentinel errors to the status and message clients see.
// The messages are part of the API contract.
var wireErrors = []struct {
	err     error
	status  int
	message string
}{
	{core.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{core.ErrInvalidWallets, http.StatusBadRequest, "Invalid wallet(s)"},
	{core.ErrSameWallet, http.StatusBadRequest, "Source and destination cannot be the same"},
	{core.ErrInvalidAmount, http.StatusBadRequest, "Invalid amount"},
	{core.ErrInsufficientBalance, http.StatusBadRequest, "Insufficient balance"},
	{core.ErrInvalidWallet, http.StatusBadRequest, "Invalid wallet"},
	{core.ErrTransactionNotFound, http.StatusNotFound, "Transaction not found"},
	{core.ErrWalletNotFound, http.StatusNotFound, "Wallet not found"},
	{core.ErrNotificationNotFound, http.StatusNotFound, "Notification not found"},
	{core.ErrGoalNotFound, http.StatusNotFound, "Savings goal not found"},
	{core.ErrInvestmentNotFound, http.StatusNotFound, "Investment not found"},
	{core.ErrNotFound, http.StatusNotFound, "Not found"},
	{errBadBody, http.StatusBadRequest, "Invalid request body"},
}

// validationErrors are reported with their own (capitalized) message.
var validationErrors = []error{
	core.ErrInvalidType,
	core.ErrInvalidStatus,
	core.ErrEmptyCategory,
	core.ErrEmptyName,
	core.ErrInvalidTarget,
	core.ErrNegativeCurrent,
	core.ErrInvalidAssetType,
	core.ErrInvalidPrice,
	core.ErrInvalidUnits,
	core.ErrDescriptionTooLong,
	core.ErrEmptyEmail,
	core.ErrInvalidDate,
}

// errorStatus resolves err to an HTTP status and client message.
func errorStatus(err error) (int, string) {
	for _, we := range wireErrors {
		if errors.Is(err, we.err) {
			return we.status, we.message
		}
	}
	for _, ve := range validationErrors {
		if errors.Is(err, ve) {
			return http.StatusBadRequest, capitalize(ve.Error())
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeError logs and writes err. Client errors log at warn, the rest at error.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, message := errorStatus(err)
	logger := flog.FromContext(r.Context())
	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "Request failed",
		flog.FieldOperation, op,
		flog.FieldPath, r.URL.Path,
		flog.FieldStatusCode, status,
		flog.FieldError, err.Error())
	ErrorResponse(status, message).Write(w)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
