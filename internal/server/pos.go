package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	shiftdomain "github.com/dwfit/pos-backend-sub000/internal/shift/domain"
)

// shiftScopeRequest lets the client override the identity headers; fields left
// empty fall back to the caller's identity scope.
type shiftScopeRequest struct {
	UserID   string `json:"user_id"`
	BranchID string `json:"branch_id"`
	BrandID  string `json:"brand_id"`
	DeviceID string `json:"device_id"`
}

func (s *Server) clockIn(c *gin.Context) {
	var req shiftScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	ident := identityFrom(c)
	shift, err := s.shiftSvc.ClockIn(c.Request.Context(), shiftdomain.ClockInRequest{
		UserID:   firstID(parseID(req.UserID), ident.UserID),
		BranchID: firstID(parseID(req.BranchID), ident.BranchID),
		BrandID:  firstID(parseID(req.BrandID), ident.BrandID),
		DeviceID: firstID(parseID(req.DeviceID), ident.DeviceID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shift})
}

func (s *Server) clockOut(c *gin.Context) {
	var req shiftScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	ident := identityFrom(c)
	shift, err := s.shiftSvc.ClockOut(c.Request.Context(),
		firstID(parseID(req.UserID), ident.UserID),
		firstID(parseID(req.BranchID), ident.BranchID),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shift})
}

type tillOpenRequest struct {
	shiftScopeRequest
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

func (s *Server) tillOpen(c *gin.Context) {
	var req tillOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ident := identityFrom(c)
	till, err := s.shiftSvc.TillOpen(c.Request.Context(), shiftdomain.TillOpenRequest{
		UserID:      firstID(parseID(req.UserID), ident.UserID),
		BranchID:    firstID(parseID(req.BranchID), ident.BranchID),
		BrandID:     firstID(parseID(req.BrandID), ident.BrandID),
		DeviceID:    firstID(parseID(req.DeviceID), ident.DeviceID),
		OpeningCash: req.OpeningCash,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": till})
}

type tillCloseRequest struct {
	shiftScopeRequest
	ClosingCash decimal.Decimal `json:"closing_cash"`
}

func (s *Server) tillClose(c *gin.Context) {
	var req tillCloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ident := identityFrom(c)
	till, err := s.shiftSvc.TillClose(c.Request.Context(),
		firstID(parseID(req.UserID), ident.UserID),
		firstID(parseID(req.BranchID), ident.BranchID),
		req.ClosingCash,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": till})
}

func (s *Server) tillStatus(c *gin.Context) {
	ident := identityFrom(c)
	status, err := s.shiftSvc.TillStatus(c.Request.Context(),
		firstID(parseID(c.Query("user_id")), ident.UserID),
		firstID(parseID(c.Query("branch_id")), ident.BranchID),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}
