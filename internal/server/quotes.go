package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	quotationdomain "github.com/smallbiznis/partdesk/internal/quotation/domain"
)

type quoteRequest struct {
	CustomerEmail string                        `json:"customer_email"`
	CustomerName  string                        `json:"customer_name"`
	Items         []quotationdomain.RequestItem `json:"items"`
	OrderRowID    int64                         `json:"order_row_id"`
	SendEmail     bool                          `json:"send_email"`
}

func (s *Server) CalculateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priced, err := s.quotationSvc.Calculate(c.Request.Context(), quotationdomain.CalculateRequest{
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Items:         req.Items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": priced})
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quotationSvc.Create(c.Request.Context(), quotationdomain.CreateRequest{
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Items:         req.Items,
		OrderRowID:    req.OrderRowID,
		SendEmail:     req.SendEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListQuotes(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	quotes, err := s.quotationSvc.List(c.Request.Context(), c.Query("customer_email"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": quotes, "count": len(quotes)})
}

func (s *Server) GetQuote(c *gin.Context) {
	resp, err := s.quotationSvc.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AcceptQuote(c *gin.Context) {
	resp, err := s.quotationSvc.Accept(c.Request.Context(), c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
