package actions

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/service/auth_service"
)

// Restrict allows only requests carrying a valid access token. The owning
// user is loaded and stashed in the context for the handlers.
func (actions *Actions) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || token == c.GetHeader("Authorization") {
			token, _ = c.Cookie("access_token")
		}
		if token == "" {
			abortWithError(c, Unauthorized, "Authentication required")
			return
		}

		claims, err := auth_service.ParseToken(token, actions.jwtTokenSecret)
		if err != nil {
			abortWithError(c, Unauthorized, "Invalid or expired token")
			return
		}
		aud, _ := claims["aud"].(string)
		if !auth_service.IsValidAudience(aud) {
			abortWithError(c, Unauthorized, "Invalid or expired token")
			return
		}

		userID := claimsUserID(claims)
		if userID == 0 {
			abortWithError(c, Unauthorized, "Invalid or expired token")
			return
		}
		user, err := actions.service.GetRepo().GetUserByID(userID)
		if err != nil {
			abortWithError(c, Unauthorized, "Invalid or expired token")
			return
		}
		if user.Status == model.UserStatusBlocked || user.Status == model.UserStatusRemoved {
			abortWithError(c, AccessDenied, "Account is not active")
			return
		}

		c.Set("auth_user_id", user.ID)
		c.Set("auth_user", user)
		c.Set("auth_scope", claims["scope"])
		c.Next()
	}
}

// HasRole gates a route on the authenticated user's role
func (actions *Actions) HasRole(roles ...model.RoleAlias) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getAuthUser(c)
		if !ok {
			abortWithError(c, Unauthorized, "Authentication required")
			return
		}
		for _, role := range roles {
			if user.RoleAlias == role {
				c.Next()
				return
			}
		}
		abortWithError(c, AccessDenied, "Access denied")
	}
}

// StaffOnly is shorthand for the admin surface
func (actions *Actions) StaffOnly() gin.HandlerFunc {
	return actions.HasRole(model.RoleAdmin, model.RoleManager)
}
