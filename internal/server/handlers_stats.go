package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/freshmart/internal/analytics"
)

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.deps.Analytics.Dashboard(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, d)
}

func (s *Server) periodAnalytics(c *gin.Context) {
	loc, _ := s.deps.Config.Location()

	from, err := analytics.ParseDate(c.Query("from"), loc, "from")
	if err != nil {
		s.respondError(c, err)
		return
	}
	to, err := analytics.ParseDate(c.Query("to"), loc, "to")
	if err != nil {
		s.respondError(c, err)
		return
	}

	p, err := s.deps.Analytics.Period(c.Request.Context(), from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, p)
}
