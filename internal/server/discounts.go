package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	discountdomain "github.com/smallbiznis/partdesk/internal/discount/domain"
)

type createDiscountRequest struct {
	CustomerEmail string  `json:"customer_email"`
	Percentage    float64 `json:"discount_percentage"`
	DiscountType  string  `json:"discount_type"`
	ProductCode   string  `json:"product_code"`
	Notes         string  `json:"notes"`
	ValidDays     int     `json:"valid_days"`
}

func (s *Server) GetCustomerDiscount(c *gin.Context) {
	resolved, err := s.discountSvc.Resolve(c.Request.Context(), c.Param("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resolved})
}

func (s *Server) ListDiscountRules(c *gin.Context) {
	rules, err := s.discountSvc.ListRules(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rules, "count": len(rules)})
}

func (s *Server) CreateDiscountRule(c *gin.Context) {
	var req createDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rule, err := s.discountSvc.AddRule(c.Request.Context(), discountdomain.AddRuleRequest{
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Percentage:    req.Percentage,
		Scope:         strings.TrimSpace(req.DiscountType),
		ProductCode:   strings.TrimSpace(req.ProductCode),
		Notes:         req.Notes,
		ValidDays:     req.ValidDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rule})
}
