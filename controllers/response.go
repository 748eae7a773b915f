package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"referral-tracking-api/middleware"
	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
)

// respondError writes {"error": message} with the status of the error kind.
func respondError(c *gin.Context, err error) {
	var (
		ve *services.ValidationError
		ne *services.NotFoundError
		ae *services.AuthorizationError
		ce *services.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &ne):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(ne.Error())})
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, gin.H{"error": ae.Message})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Message})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// callerEmpID prefers the authenticated emp_id over the one sent by the client.
func callerEmpID(c *gin.Context, fallback string) string {
	if empID := c.GetString(middleware.ContextEmpID); empID != "" {
		return empID
	}
	return strings.TrimSpace(fallback)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
