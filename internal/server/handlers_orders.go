package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matthieukhl/freshmart/internal/analytics"
	"github.com/matthieukhl/freshmart/internal/orders"
)

func (s *Server) createOrder(c *gin.Context) {
	var input orders.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondBindError(c, err)
		return
	}
	input.CustomerName = c.GetString(customerKey)

	order, err := s.deps.Orders.Create(c.Request.Context(), input)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, order)
}

func (s *Server) listOrders(c *gin.Context) {
	res, err := s.deps.Orders.List(c.Request.Context(), orders.ListParams{
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondPage(c, res)
}

func (s *Server) getOrder(c *gin.Context) {
	id, err := pathID(c, "Order not found")
	if err != nil {
		s.respondError(c, err)
		return
	}

	order, err := s.deps.Orders.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

// getPublicOrder serves the order confirmation page
func (s *Server) getPublicOrder(c *gin.Context) {
	s.getOrder(c)
}

type statusInput struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, err := pathID(c, "Order not found")
	if err != nil {
		s.respondError(c, err)
		return
	}

	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.respondBindError(c, err)
		return
	}

	order, err := s.deps.Orders.UpdateStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

func (s *Server) orderAnalytics(c *gin.Context) {
	loc, _ := s.deps.Config.Location()

	from, err := analytics.ParseDate(c.Query("startDate"), loc, "startDate")
	if err != nil {
		s.respondError(c, err)
		return
	}
	to, err := analytics.ParseDate(c.Query("endDate"), loc, "endDate")
	if err != nil {
		s.respondError(c, err)
		return
	}

	summary, err := s.deps.Analytics.OrderSummary(c.Request.Context(), from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, summary)
}
