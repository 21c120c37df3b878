package actions

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/logger"
	"gitlab.com/vtindex/backoffice_api/model"
)

// Ping godoc
func Ping(c *gin.Context) {
	c.String(OK, "pong")
}

func abortWithError(c *gin.Context, code int, message string) {
	l := getlog(c)
	l.Debug().Int("resp_code", code).Msg(message)
	c.AbortWithStatusJSON(code, map[string]string{"error": message})
}

// handleServiceError answers with the status a service error carries, hiding
// internal detail behind a generic message for everything else.
func handleServiceError(c *gin.Context, err error) {
	var reqErr *httputils.RequestError
	if errors.As(err, &reqErr) {
		abortWithError(c, reqErr.Status, reqErr.Message)
		return
	}
	abortWithError(c, ServerError, "Unable to process request")
}

func getUserID(c *gin.Context) (uint64, bool) {
	iUserID, ok := c.Get("auth_user_id")
	if !ok {
		return 0, false
	}
	return iUserID.(uint64), true
}

func getAuthUser(c *gin.Context) (*model.User, bool) {
	iUser, ok := c.Get("auth_user")
	if !ok {
		return nil, false
	}
	return iUser.(*model.User), true
}

func getQueryAsInt(c *gin.Context, name string, def int) int {
	val := c.Query(name)
	if val == "" {
		return def
	}
	param, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return param
}

func getPagination(c *gin.Context) (int, int) {
	page := getQueryAsInt(c, "page", 1)
	limit := getQueryAsInt(c, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func getlog(c *gin.Context) zerolog.Logger {
	return logger.GetLogger(c)
}

// getIPFromRequest - get the first IP from request
func getIPFromRequest(ip string) string {
	if ip == "" {
		return ip
	}
	return strings.TrimSuffix(strings.TrimSpace(strings.SplitAfter(ip, ",")[0]), ",")
}
