package http

import (
	"encoding/csv"
	"net/http"
	"sync/atomic"

	"finboard/internal/core"
	flog "finboard/internal/log"
)

var csvHeader = []string{"id", "amount", "date", "category", "type", "walletId", "description", "status"}

// handleListTransactions returns one page when ?page is present and the
// full list otherwise.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)
	if page, ok := ParsePage(r.URL.Query()); ok {
		txs, err = s.svc.Ledger.Page(r.Context(), page)
	} else {
		txs, err = s.svc.Ledger.ListTransactions(r.Context())
	}
	if err != nil {
		writeError(w, r, flog.OpList, err)
		return
	}
	OK(w, nonNil(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Ledger.GetTransaction(r.Context(), PathID(r))
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := DecodeJSON[core.Transaction](w, r)
	if err != nil {
		writeError(w, r, flog.OpCreate, err)
		return
	}
	tx.ID = ""
	tx.Category = sanitizeInput(tx.Category)
	tx.Description = sanitizeInput(tx.Description)
	tx.WalletID = sanitizeInput(tx.WalletID)

	saved, err := s.svc.Ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, flog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)
	Created(w, saved)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	patch, err := DecodeJSON[core.TransactionPatch](w, r)
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	for _, p := range []*string{patch.Category, patch.Description, patch.WalletID} {
		if p != nil {
			*p = sanitizeInput(*p)
		}
	}
	saved, err := s.svc.Ledger.UpdateTransaction(r.Context(), PathID(r), patch)
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	OK(w, saved)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ledger.DeleteTransaction(r.Context(), PathID(r)); err != nil {
		writeError(w, r, flog.OpDelete, err)
		return
	}
	Success(w)
}

// handleExportTransactions streams the full list as transactions.csv.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.Ledger.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, flog.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, tx := range txs {
		_ = cw.Write([]string{
			tx.ID,
			tx.Amount.String(),
			tx.Date.String(),
			tx.Category,
			string(tx.Type),
			tx.WalletID,
			tx.Description,
			string(tx.Status),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		flog.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed", flog.FieldError, err.Error())
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
