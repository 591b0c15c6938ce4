package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/matthieukhl/freshmart/internal/listing"
	"github.com/matthieukhl/freshmart/internal/types"
)

// envelope is the body of every API response
type envelope struct {
	Success bool               `json:"success"`
	Count   *int               `json:"count,omitempty"`
	Total   *int               `json:"total,omitempty"`
	Page    *int               `json:"page,omitempty"`
	Pages   *int               `json:"pages,omitempty"`
	Data    any                `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
	Errors  []types.FieldError `json:"errors,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// respondNull answers success with an explicit "data": null
func respondNull(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
}

func respondMessage(c *gin.Context, status int, success bool, message string) {
	c.JSON(status, envelope{Success: success, Message: message})
}

func respondPage[T any](c *gin.Context, res listing.Result[T]) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Count:   &res.Count,
		Total:   &res.Total,
		Page:    &res.Page,
		Pages:   &res.Pages,
		Data:    res.Items,
	})
}

// respondError maps err to its status code. Internal errors are logged and
// their detail only leaves the process in development.
func (s *Server) respondError(c *gin.Context, err error) {
	status := types.StatusCode(err)

	if message, ok := types.PublicMessage(err); ok {
		var appErr *types.AppError
		errors.As(err, &appErr)
		c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Errors: appErr.Fields})
		return
	}

	s.logger.Error("Request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"request_id", c.GetString(requestIDKey),
		"error", err)

	body := envelope{Success: false, Message: "Server error"}
	if s.deps.Config.IsDevelopment() {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// respondBindError reports a request that failed binding or validation
func (s *Server) respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := fieldErrors(verrs)
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Message: fields[0].Message, Errors: fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Message: "Invalid request body"})
}
