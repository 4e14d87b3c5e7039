package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
)

type startSessionRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ModelName     string `json:"model_name"`
	PlanName      string `json:"plan_name"`
	Amount        string `json:"amount"`
}

func (s *Server) startCheckoutSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	amountCents, err := checkoutdomain.ParseAmountBRL(req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status, err := s.checkoutSvc.StartSession(c.Request.Context(), checkoutdomain.StartSessionRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ModelName:     req.ModelName,
		PlanName:      req.PlanName,
		AmountCents:   amountCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, status)
}

func (s *Server) getCheckoutSession(c *gin.Context) {
	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	status, err := s.checkoutSvc.SessionStatus(c.Request.Context(), attemptID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) resetCheckoutSession(c *gin.Context) {
	attemptID, ok := parseAttemptID(c)
	if !ok {
		return
	}

	if err := s.checkoutSvc.ResetSession(c.Request.Context(), attemptID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseAttemptID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}
