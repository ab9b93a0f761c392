package handlers

import (
	"strings"

	"github.com/hdreventsza-arch/hrd-events/services"
	"github.com/hdreventsza-arch/hrd-events/utils"

	"github.com/labstack/echo/v4"
)

// DraftTokenMiddleware admits a request only when its draft token was issued
// for the draft named by the :id path parameter.
func DraftTokenMiddleware(jwtService *services.JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := GetDraftTokenFromRequest(c)
			if token == "" {
				return utils.ErrorResponse(c, 401, "Draft token is required", nil)
			}

			if _, err := jwtService.ValidateDraftToken(token, c.Param("id")); err != nil {
				return utils.ErrorResponse(c, 401, "Invalid or expired draft token", nil)
			}

			return next(c)
		}
	}
}

// GetDraftTokenFromRequest checks the query parameter, then the
// Authorization header.
func GetDraftTokenFromRequest(c echo.Context) string {
	if token := c.QueryParam("draftToken"); token != "" {
		return token
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}
