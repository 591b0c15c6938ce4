package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/freshmart/internal/auth"
	"github.com/matthieukhl/freshmart/internal/session"
	"github.com/matthieukhl/freshmart/internal/types"
)

func (s *Server) login(c *gin.Context) {
	var input auth.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondBindError(c, err)
		return
	}

	token, user, err := s.deps.Auth.Login(c.Request.Context(), input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setAuthCookie(c, token, int(s.deps.Auth.Tokens().TTL().Seconds()))
	respondData(c, http.StatusOK, gin.H{"user": user, "token": token})
}

func (s *Server) logout(c *gin.Context) {
	s.setAuthCookie(c, "", -1)
	respondMessage(c, http.StatusOK, true, "Logged out successfully")
}

func (s *Server) me(c *gin.Context) {
	respondData(c, http.StatusOK, currentUser(c))
}

func (s *Server) register(c *gin.Context) {
	var input auth.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondBindError(c, err)
		return
	}

	user, err := s.deps.Auth.Register(c.Request.Context(), input)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

type sessionInput struct {
	CustomerName string `json:"customerName" binding:"required"`
}

func (s *Server) createSession(c *gin.Context) {
	var input sessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondBindError(c, err)
		return
	}
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		s.respondError(c, types.Validation("server.createSession", "Customer name is required",
			types.FieldError{Field: "customerName", Message: "Customer name is required"}))
		return
	}

	token, err := s.deps.Sessions.Issue(name)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, token, int(s.deps.Sessions.TTL().Seconds()))
	respondData(c, http.StatusOK, gin.H{"customerName": name, "token": token})
}

// getSession reports the current customer. A bad token is cleared and
// treated as no session.
func (s *Server) getSession(c *gin.Context) {
	raw, err := c.Cookie(session.CookieName)
	if err != nil || raw == "" {
		respondNull(c)
		return
	}

	result := s.deps.Sessions.Verify(raw)
	if !result.Valid {
		s.setSessionCookie(c, "", -1)
		respondNull(c)
		return
	}
	respondData(c, http.StatusOK, gin.H{"customerName": result.CustomerName})
}

func (s *Server) clearSession(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	respondMessage(c, http.StatusOK, true, "Customer session cleared")
}
