package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gitlab.com/vtindex/backoffice_api/model"
)

// GetOwnTradingAccounts godoc
func (actions *Actions) GetOwnTradingAccounts(c *gin.Context) {
	userID, _ := getUserID(c)

	accounts, err := actions.service.GetOwnTradingAccounts(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, accounts)
}

// RefreshTradingAccount godoc
//
// Pulls the live MT5 balance into the cabinet snapshot.
func (actions *Actions) RefreshTradingAccount(c *gin.Context) {
	userID, _ := getUserID(c)
	accountID := c.Param("account_id")

	account, err := actions.service.RefreshAccountSnapshot(c.Request.Context(), userID, accountID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, account)
}

// GetTradingAccounts godoc
//
// Admin listing, optionally filtered by user.
func (actions *Actions) GetTradingAccounts(c *gin.Context) {
	page, limit := getPagination(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	accounts, err := actions.service.GetTradingAccounts(userID, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, accounts)
}

// CreateTradingAccount godoc
func (actions *Actions) CreateTradingAccount(c *gin.Context) {
	staffID, _ := getUserID(c)
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}

	accountType := model.AccountType(c.PostForm("account_type"))
	if accountType == "" {
		accountType = model.AccountTypeStandard
	}

	account, err := actions.service.CreateTradingAccount(
		staffID,
		userID,
		c.PostForm("account_id"),
		accountType,
		c.PostForm("group_name"),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(Created, account)
}
