package http

import (
	"net/http"

	flog "finboard/internal/log"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Analytics.Summary(r.Context())
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, sum)
}

func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	months, err := s.svc.Analytics.Monthly(r.Context())
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, nonNil(months))
}

func (s *Server) handleCategoryAnalytics(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Analytics.Categories(r.Context())
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, nonNil(cats))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.svc.Analytics.Insights(r.Context())
	if err != nil {
		writeError(w, r, flog.OpRead, err)
		return
	}
	OK(w, nonNil(insights))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := s.svc.Notifications.List(r.Context())
	if err != nil {
		writeError(w, r, flog.OpList, err)
		return
	}
	OK(w, nonNil(ns))
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.MarkRead(r.Context(), PathID(r))
	if err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	OK(w, n)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Notifications.MarkAllRead(r.Context()); err != nil {
		writeError(w, r, flog.OpUpdate, err)
		return
	}
	Success(w)
}
