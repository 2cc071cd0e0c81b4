package webserver

import (
	"net/http"
	"strings"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.session.User() != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, &PageData{Title: "Sign in", Login: true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if _, err := s.session.SignIn(r.Context(), email, r.FormValue("password")); err != nil {
		s.log.Warnw("signing in", "error", err)
		data := &PageData{Title: "Sign in", Login: true, Email: email, Error: "Invalid email or password."}
		s.render(w, http.StatusUnauthorized, data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.SignOut(r.Context()); err != nil {
		s.log.Warnw("signing out", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleToggleTheme switches theme and goes back to the page the form was posted from.
func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := s.themes.Toggle(); err != nil {
		s.log.Errorw("toggling theme", "error", err)
	}
	back := "/"
	if referer := r.Referer(); strings.Contains(referer, "/chat/") {
		back = referer[strings.Index(referer, "/chat/"):]
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
