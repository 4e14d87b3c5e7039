package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (s *Server) listAttempts(c *gin.Context) {
	filter := checkoutdomain.ListFilter{
		Status: checkoutdomain.AttemptStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", defaultListLimit),
		Offset: queryInt(c, "offset", 0),
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	attempts, err := s.checkoutSvc.ListAttempts(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if attempts == nil {
		attempts = []checkoutdomain.PaymentAttempt{}
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

type overrideStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) overrideAttemptStatus(c *gin.Context) {
	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	var req overrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	to := checkoutdomain.AttemptStatus(req.Status)
	if !to.Valid() {
		AbortWithError(c, checkoutdomain.ErrInvalidStatus)
		return
	}

	attempt, err := s.checkoutSvc.OverrideStatus(c.Request.Context(), attemptID, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}
