package http

import (
	"net/http"
	"sync/atomic"

	"finboard/internal/core"
	flog "finboard/internal/log"
)

type transferRequest struct {
	FromID string     `json:"fromId"`
	ToID   string     `json:"toId"`
	Amount core.Money `json:"amount"`
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	ws, err := s.svc.Ledger.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, flog.OpList, err)
		return
	}
	OK(w, nonNil(ws))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeJSON[transferRequest](w, r)
	if err != nil {
		writeError(w, r, flog.OpTransfer, err)
		return
	}
	res, err := s.svc.Ledger.Transfer(r.Context(), sanitizeInput(req.FromID), sanitizeInput(req.ToID), req.Amount)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.failedTransfers, 1)
		writeError(w, r, flog.OpTransfer, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transfers, 1)
	OK(w, res)
}

func (s *Server) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.Ledger.WalletTransactions(r.Context(), PathID(r))
	if err != nil {
		writeError(w, r, flog.OpList, err)
		return
	}
	OK(w, txs)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Ledger.Balance(r.Context())
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, b)
}
