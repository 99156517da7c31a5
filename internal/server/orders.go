package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	orderchannel "github.com/dwfit/pos-backend-sub000/internal/order/channel"
	orderdomain "github.com/dwfit/pos-backend-sub000/internal/order/domain"
)

func (s *Server) createOrderGeneric(c *gin.Context) {
	var payload orderchannel.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := s.normalizer.NormalizeGeneric(c.Request.Context(), payload, identityFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (s *Server) createOrderPOS(c *gin.Context) {
	var payload orderchannel.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := s.normalizer.NormalizePOS(c.Request.Context(), payload, identityFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (s *Server) createOrderCallCenter(c *gin.Context) {
	var payload orderchannel.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := s.normalizer.NormalizeCallCenter(c.Request.Context(), payload, identityFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (s *Server) listOrders(c *gin.Context) {
	var query struct {
		BranchID     string `form:"branch_id"`
		Status       string `form:"status"`
		BusinessDate string `form:"business_date"`
		Limit        int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orders, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListFilter{
		BranchID:     parseID(query.BranchID),
		Status:       orderdomain.Status(strings.TrimSpace(query.Status)),
		BusinessDate: strings.TrimSpace(query.BusinessDate),
		Limit:        query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) closeOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var payload orderchannel.ClosePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.orderSvc.Close(c.Request.Context(), id, orderchannel.NormalizeClose(payload))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":           result.Order,
		"already_closed": result.AlreadyClosed,
	})
}

func (s *Server) voidOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := s.orderSvc.Void(c.Request.Context(), id, identityFrom(c).UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) acceptOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := s.orderSvc.Accept(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) declineOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := s.orderSvc.Decline(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func orderIDParam(c *gin.Context) (snowflake.ID, bool) {
	id := parseID(c.Param("id"))
	if id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid order id"))
		return 0, false
	}
	return id, true
}
