package actions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/service/auth_service"
)

// Login godoc
//
// Password login. A login from an address the user has never signed in from
// gets a 6 digit code by email and the request answers 202; the client
// repeats the login with the code attached.
func (actions *Actions) Login(c *gin.Context) {
	log := getlog(c)

	var request model.LoginRequest
	if err := c.ShouldBind(&request); err != nil {
		abortWithError(c, BadRequest, "Email and password are required")
		return
	}

	user, err := actions.service.AuthenticateUser(request.Email, request.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	ip := c.ClientIP()
	if forwarded := getIPFromRequest(c.GetHeader("x-forwarded-for")); forwarded != "" {
		ip = forwarded
	}

	known, err := actions.service.IsKnownLoginIP(user.ID, ip)
	if err != nil {
		log.Error().Err(err).
			Str("section", "actions").
			Str("action", "login").
			Uint64("user_id", user.ID).
			Msg("Unable to check login address")
		abortWithError(c, ServerError, "Unable to process request")
		return
	}

	if !known {
		if request.OTPCode == "" {
			if err := actions.service.IssueLoginOTP(user, ip); err != nil {
				log.Error().Err(err).
					Str("section", "actions").
					Str("action", "login").
					Uint64("user_id", user.ID).
					Msg("Unable to issue login code")
				abortWithError(c, ServerError, "Unable to send verification code")
				return
			}
			c.JSON(Accepted, map[string]interface{}{
				"verification_required": true,
				"message":               "A verification code was sent to your email address",
			})
			return
		}
		if err := actions.service.VerifyLoginOTP(user, request.OTPCode); err != nil {
			handleServiceError(c, err)
			return
		}
	}

	access, refresh, err := actions.issueTokenPair(user)
	if err != nil {
		log.Error().Err(err).
			Str("section", "actions").
			Str("action", "login").
			Uint64("user_id", user.ID).
			Msg("Unable to sign tokens")
		abortWithError(c, ServerError, "Unable to process request")
		return
	}

	actions.service.CompleteLogin(user, ip, c.Request.UserAgent(), !known)
	actions.setAuthCookies(c, user, access, refresh)
	c.JSON(OK, map[string]interface{}{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_in":    actions.cfg.Server.API.AccessTokenLifetime,
	})
}

// Logout godoc
//
// Blacklists the refresh token and clears the auth cookies.
func (actions *Actions) Logout(c *gin.Context) {
	userID, _ := getUserID(c)

	refresh := c.PostForm("refresh_token")
	if refresh == "" {
		refresh, _ = c.Cookie("refresh_token")
	}
	if refresh != "" {
		if claims, err := auth_service.ParseToken(refresh, actions.jwtRefreshSecret); err == nil {
			actions.blacklistRefreshClaims(claims, userID)
		}
	}

	actions.clearAuthCookies(c)
	c.JSON(OK, map[string]string{"message": "Signed out"})
}

// RefreshToken godoc
//
// Rotates the refresh token: the presented token is blacklisted and a fresh
// pair is issued. A blacklisted or invalid token answers 401.
func (actions *Actions) RefreshToken(c *gin.Context) {
	refresh := c.PostForm("refresh_token")
	if refresh == "" {
		refresh, _ = c.Cookie("refresh_token")
	}
	if refresh == "" {
		abortWithError(c, Unauthorized, "Refresh token is required")
		return
	}

	claims, err := auth_service.ParseToken(refresh, actions.jwtRefreshSecret)
	if err != nil {
		abortWithError(c, Unauthorized, "Invalid or expired refresh token")
		return
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		abortWithError(c, Unauthorized, "Invalid or expired refresh token")
		return
	}

	blacklisted, err := actions.service.GetRepo().IsRefreshTokenBlacklisted(jti)
	if err != nil {
		abortWithError(c, ServerError, "Unable to process request")
		return
	}
	if blacklisted {
		abortWithError(c, Unauthorized, "Refresh token was revoked")
		return
	}

	userID := claimsUserID(claims)
	user, err := actions.service.GetRepo().GetUserByID(userID)
	if err != nil {
		abortWithError(c, Unauthorized, "Invalid or expired refresh token")
		return
	}
	if user.Status == model.UserStatusBlocked || user.Status == model.UserStatusRemoved {
		abortWithError(c, AccessDenied, "Account is not active")
		return
	}

	actions.blacklistRefreshClaims(claims, user.ID)

	access, newRefresh, err := actions.issueTokenPair(user)
	if err != nil {
		abortWithError(c, ServerError, "Unable to process request")
		return
	}
	actions.setAuthCookies(c, user, access, newRefresh)
	c.JSON(OK, map[string]interface{}{
		"access_token":  access,
		"refresh_token": newRefresh,
		"token_type":    "bearer",
		"expires_in":    actions.cfg.Server.API.AccessTokenLifetime,
	})
}

func (actions *Actions) issueTokenPair(user *model.User) (access, refresh string, err error) {
	aud := auth_service.AudienceClient
	scope := auth_service.ScopeClientAll
	if user.RoleAlias.IsStaff() {
		aud = auth_service.AudienceAdmin
		scope = auth_service.ScopeAdminAll
	}

	api := actions.cfg.Server.API
	access, err = auth_service.CreateAccessToken(user.ID, aud, scope, actions.jwtTokenSecret, api.AccessTokenLifetime)
	if err != nil {
		return "", "", err
	}
	refresh, _, err = auth_service.CreateRefreshToken(user.ID, aud, actions.jwtRefreshSecret, api.RefreshTokenLifetime)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (actions *Actions) blacklistRefreshClaims(claims map[string]interface{}, userID uint64) {
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	expiresAt := time.Now().Add(time.Duration(actions.cfg.Server.API.RefreshTokenLifetime) * time.Second)
	if exp, ok := claims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0)
	}
	if err := actions.service.GetRepo().BlacklistRefreshToken(jti, userID, expiresAt); err != nil {
		log.Warn().Err(err).
			Str("section", "actions").
			Str("action", "refresh_blacklist").
			Uint64("user_id", userID).
			Msg("Unable to blacklist refresh token")
	}
}

func claimsUserID(claims map[string]interface{}) uint64 {
	switch v := claims["user_id"].(type) {
	case string:
		id, _ := strconv.ParseUint(v, 10, 64)
		return id
	case float64:
		return uint64(v)
	default:
		return 0
	}
}

func (actions *Actions) setAuthCookies(c *gin.Context, user *model.User, access, refresh string) {
	api := actions.cfg.Server.API
	secure := !actions.cfg.Server.Debug.Enabled

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt_token", access, api.AccessTokenLifetime, "/", api.CookieDomain, secure, true)
	c.SetCookie("access_token", access, api.AccessTokenLifetime, "/", api.CookieDomain, secure, true)
	c.SetCookie("refresh_token", refresh, api.RefreshTokenLifetime, "/", api.CookieDomain, secure, true)
	c.SetCookie("userName", user.FullName(), api.RefreshTokenLifetime, "/", api.CookieDomain, secure, true)
	c.SetCookie("userEmail", user.Email, api.RefreshTokenLifetime, "/", api.CookieDomain, secure, true)
	c.SetCookie("userRole", user.RoleAlias.String(), api.RefreshTokenLifetime, "/", api.CookieDomain, secure, true)
}

func (actions *Actions) clearAuthCookies(c *gin.Context) {
	api := actions.cfg.Server.API
	secure := !actions.cfg.Server.Debug.Enabled

	c.SetSameSite(http.SameSiteStrictMode)
	for _, name := range []string{"jwt_token", "access_token", "refresh_token", "userName", "userEmail", "userRole"} {
		c.SetCookie(name, "", -1, "/", api.CookieDomain, secure, true)
	}
}
