package handler

import (
	"errors"
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/service"
	"tailorshop/pkg/response"

	"github.com/gin-gonic/gin"
)

// Roles accepted by the route guards
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

var (
	anyRole     = []string{RoleAdmin, RoleManager, RoleStaff}
	managerRole = []string{RoleAdmin, RoleManager}
)

// statusFor maps a service error onto its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAlreadyCancelled), errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTransactionBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)

	var details interface{}
	var validationErr *service.ValidationError
	var stockErr *service.InsufficientStockError
	var notFoundErr *service.NotFoundError
	var conflictErr *service.ConflictError
	switch {
	case errors.As(err, &validationErr):
		details = validationErr.Violations
	case errors.As(err, &stockErr):
		details = stockErr
	case errors.As(err, &notFoundErr):
		details = notFoundErr
	case errors.As(err, &conflictErr):
		details = conflictErr
	}

	if details != nil {
		c.JSON(status, response.ErrorWithDetails(status, err.Error(), details))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func actorID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
