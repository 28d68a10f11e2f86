package http

import (
	"net/http"
	"sync/atomic"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeJSON[credentials](w, r)
	if err != nil {
		writeError(w, r, "signin", err)
		return
	}
	sess, err := s.svc.Auth.SignIn(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.failedSignIns, 1)
		writeError(w, r, "signin", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.signIns, 1)
	OK(w, sess)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeJSON[credentials](w, r)
	if err != nil {
		writeError(w, r, "signup", err)
		return
	}
	sess, err := s.svc.Auth.SignUp(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, r, "signup", err)
		return
	}
	Created(w, sess)
}
