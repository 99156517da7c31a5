package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	taxdomain "github.com/dwfit/pos-backend-sub000/internal/tax/domain"
)

type createTaxRateRequest struct {
	Name     string `json:"name"`
	Percent  string `json:"percent"`
	IsActive *bool  `json:"is_active"`
}

func (s *Server) createTaxRate(c *gin.Context) {
	var req createTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rate, err := s.taxSvc.Create(c.Request.Context(), taxdomain.CreateTaxRateRequest{
		Name:     strings.TrimSpace(req.Name),
		Percent:  strings.TrimSpace(req.Percent),
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": rate})
}

func (s *Server) listTaxRates(c *gin.Context) {
	rates, err := s.taxSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rates})
}
