package http

import (
	"net/http"

	"finboard/internal/core"
	flog "finboard/internal/log"
	"finboard/internal/services"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	gs, err := s.svc.Goals.List(r.Context())
	if err != nil {
		writeError(w, r, flog.OpList, err)
		return
	}
	OK(w, nonNil(gs))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Goals.Get(r.Context(), PathID(r))
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, g)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	g, err := DecodeJSON[core.SavingsGoal](w, r)
	if err != nil {
		writeError(w, r, flog.OpCreate, err)
		return
	}
	g.Name = sanitizeInput(g.Name)
	saved, err := s.svc.Goals.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, flog.OpCreate, err)
		return
	}
	Created(w, saved)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	patch, err := DecodeJSON[services.GoalPatch](w, r)
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	if patch.Name != nil {
		*patch.Name = sanitizeInput(*patch.Name)
	}
	saved, err := s.svc.Goals.Update(r.Context(), PathID(r), patch)
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	OK(w, saved)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Goals.Delete(r.Context(), PathID(r)); err != nil {
		writeError(w, r, flog.OpDelete, err)
		return
	}
	Success(w)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	invs, err := s.svc.Investments.List(r.Context())
	if err != nil {
		writeError(w, r, flog.OpList, err)
		return
	}
	OK(w, nonNil(invs))
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := s.svc.Investments.Get(r.Context(), PathID(r))
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, inv)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := DecodeJSON[core.Investment](w, r)
	if err != nil {
		writeError(w, r, flog.OpCreate, err)
		return
	}
	inv.AssetName = sanitizeInput(inv.AssetName)
	inv.Category = sanitizeInput(inv.Category)
	saved, err := s.svc.Investments.Create(r.Context(), inv)
	if err != nil {
		writeError(w, r, flog.OpCreate, err)
		return
	}
	Created(w, saved)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	patch, err := DecodeJSON[services.InvestmentPatch](w, r)
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	for _, p := range []*string{patch.AssetName, patch.Category} {
		if p != nil {
			*p = sanitizeInput(*p)
		}
	}
	saved, err := s.svc.Investments.Update(r.Context(), PathID(r), patch)
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	OK(w, saved)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Investments.Delete(r.Context(), PathID(r)); err != nil {
		writeError(w, r, flog.OpDelete, err)
		return
	}
	Success(w)
}

func (s *Server) handleInvestmentSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Investments.Summary(r.Context())
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, sum)
}
