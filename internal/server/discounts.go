package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
)

type createDiscountRequest struct {
	BrandID          string           `json:"brand_id"`
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	Qualification    string           `json:"qualification"`
	Value            decimal.Decimal  `json:"value"`
	MaxDiscount      *decimal.Decimal `json:"max_discount"`
	MinProductPrice  *decimal.Decimal `json:"min_product_price"`
	OrderTypes       []string         `json:"order_types"`
	ApplyAllBranches bool             `json:"apply_all_branches"`
	BranchIDs        []string         `json:"branch_ids"`
	CategoryIDs      []string         `json:"category_ids"`
	ProductSizeIDs   []string         `json:"product_size_ids"`
}

func (s *Server) createDiscount(c *gin.Context) {
	var req createDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ident := identityFrom(c)
	brandID := firstID(parseID(req.BrandID), ident.BrandID)
	if !ident.CanAccessBrand(brandID) {
		AbortWithError(c, discountdomain.ErrDiscountForbidden)
		return
	}

	discount, err := s.discountSvc.Create(c.Request.Context(), discountdomain.CreateDiscountRequest{
		BrandID:          brandID,
		Name:             strings.TrimSpace(req.Name),
		Type:             discountdomain.Type(strings.ToUpper(strings.TrimSpace(req.Type))),
		Qualification:    discountdomain.Qualification(strings.ToUpper(strings.TrimSpace(req.Qualification))),
		Value:            req.Value,
		MaxDiscount:      req.MaxDiscount,
		MinProductPrice:  req.MinProductPrice,
		OrderTypes:       req.OrderTypes,
		ApplyAllBranches: req.ApplyAllBranches,
		BranchIDs:        parseIDs(req.BranchIDs),
		CategoryIDs:      parseIDs(req.CategoryIDs),
		ProductSizeIDs:   parseIDs(req.ProductSizeIDs),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": discount})
}

func (s *Server) listDiscounts(c *gin.Context) {
	ident := identityFrom(c)
	brandID := firstID(parseID(c.Query("brand_id")), ident.BrandID)
	if brandID == 0 {
		AbortWithError(c, newValidationError("brand_id", "invalid_brand", "brand_id is required"))
		return
	}
	if !ident.CanAccessBrand(brandID) {
		AbortWithError(c, discountdomain.ErrDiscountForbidden)
		return
	}

	discounts, err := s.discountSvc.List(c.Request.Context(), brandID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": discounts})
}

type updateDiscountRequest struct {
	Name             *string          `json:"name"`
	Value            *decimal.Decimal `json:"value"`
	MaxDiscount      *decimal.Decimal `json:"max_discount"`
	MinProductPrice  *decimal.Decimal `json:"min_product_price"`
	OrderTypes       []string         `json:"order_types"`
	ApplyAllBranches *bool            `json:"apply_all_branches"`
}

func (s *Server) updateDiscount(c *gin.Context) {
	id, ok := s.scopedDiscountID(c)
	if !ok {
		return
	}

	var req updateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	discount, err := s.discountSvc.Update(c.Request.Context(), id, discountdomain.UpdateDiscountRequest{
		Name:             req.Name,
		Value:            req.Value,
		MaxDiscount:      req.MaxDiscount,
		MinProductPrice:  req.MinProductPrice,
		OrderTypes:       req.OrderTypes,
		ApplyAllBranches: req.ApplyAllBranches,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": discount})
}

func (s *Server) deleteDiscount(c *gin.Context) {
	id, ok := s.scopedDiscountID(c)
	if !ok {
		return
	}
	if err := s.discountSvc.SoftDelete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

type replaceBranchesRequest struct {
	BranchIDs []string `json:"branch_ids"`
}

func (s *Server) replaceDiscountBranches(c *gin.Context) {
	id, ok := s.scopedDiscountID(c)
	if !ok {
		return
	}

	var req replaceBranchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.discountSvc.ReplaceBranchLinks(c.Request.Context(), id, parseIDs(req.BranchIDs)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": true}})
}

// scopedDiscountID parses the :id param and enforces that the caller may
// manage the discount's brand.
func (s *Server) scopedDiscountID(c *gin.Context) (snowflake.ID, bool) {
	id := parseID(c.Param("id"))
	if id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid discount id"))
		return 0, false
	}
	discount, err := s.discountSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return 0, false
	}
	if !identityFrom(c).CanAccessBrand(discount.BrandID) {
		AbortWithError(c, discountdomain.ErrDiscountForbidden)
		return 0, false
	}
	return id, true
}

func parseIDs(raw []string) []snowflake.ID {
	var out []snowflake.ID
	for _, part := range raw {
		if id := parseID(part); id != 0 {
			out = append(out, id)
		}
	}
	return out
}
