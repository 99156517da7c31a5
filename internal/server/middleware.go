package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/dwfit/pos-backend-sub000/internal/identity"
)

// IdentityMiddleware trusts the auth gateway's headers for caller scoping.
// Anything behind it is rejected outright without a user id.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := parseID(c.GetHeader("X-User-ID"))
		if userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ident := identity.Identity{
			UserID:          userID,
			BranchID:        parseID(c.GetHeader("X-Branch-ID")),
			BrandID:         parseID(c.GetHeader("X-Brand-ID")),
			DeviceID:        parseID(c.GetHeader("X-Device-ID")),
			Permissions:     splitHeader(c.GetHeader("X-Permissions")),
			AllowedBrandIDs: parseIDList(c.GetHeader("X-Allowed-Brands")),
		}
		if strings.EqualFold(c.GetHeader("X-Allow-All-Brands"), "true") {
			ident.AllowAllBrands = true
		}

		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), ident))
		c.Next()
	}
}

func parseID(raw string) snowflake.ID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0
	}
	return id
}

func firstID(ids ...snowflake.ID) snowflake.ID {
	for _, id := range ids {
		if id != 0 {
			return id
		}
	}
	return 0
}

func parseIDList(raw string) []snowflake.ID {
	var out []snowflake.ID
	for _, part := range splitHeader(raw) {
		if id := parseID(part); id != 0 {
			out = append(out, id)
		}
	}
	return out
}

func splitHeader(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func identityFrom(c *gin.Context) identity.Identity {
	ident, _ := identity.FromContext(c.Request.Context())
	return ident
}
