package actions

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/vtindex/backoffice_api/model"
)

// CreateTransaction godoc
//
// Client-side money movement request. Stays pending until an admin resolves
// it; nothing reaches MT5 before that.
func (actions *Actions) CreateTransaction(c *gin.Context) {
	userID, _ := getUserID(c)

	var request model.CreateTransactionRequest
	if err := c.ShouldBind(&request); err != nil {
		abortWithError(c, ValidationFailed, "Transaction type and amount are required")
		return
	}

	tx, err := actions.service.CreateTransaction(userID, &request)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(Created, tx)
}

// GetOwnTransactions godoc
func (actions *Actions) GetOwnTransactions(c *gin.Context) {
	userID, _ := getUserID(c)
	page, limit := getPagination(c)

	transactions, err := actions.service.GetRepo().GetUserTransactions(userID, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, transactions)
}

// GetTransactions godoc
//
// Admin listing with type, status, user and date range filters.
func (actions *Actions) GetTransactions(c *gin.Context) {
	page, limit := getPagination(c)
	txType := model.TransactionType(c.Query("type"))
	status := model.TransactionStatus(c.Query("status"))
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	var from, to *time.Time
	if v, err := strconv.ParseInt(c.Query("from"), 10, 64); err == nil && v > 0 {
		t := time.Unix(v, 0)
		from = &t
	}
	if v, err := strconv.ParseInt(c.Query("to"), 10, 64); err == nil && v > 0 {
		t := time.Unix(v, 0)
		to = &t
	}

	transactions, err := actions.service.GetRepo().GetTransactions(userID, txType, status, from, to, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, transactions)
}

// ApproveTransaction godoc
//
// Runs the approval pipeline. Managers may only resolve transactions of the
// users they look after.
func (actions *Actions) ApproveTransaction(c *gin.Context) {
	adminID, _ := getUserID(c)
	txID := c.Param("transaction_id")
	note := c.PostForm("comment")

	if !actions.canManageTransaction(c, txID) {
		return
	}

	tx, err := actions.service.ApproveTransaction(c.Request.Context(), adminID, txID, note)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, tx)
}

// RejectTransaction godoc
func (actions *Actions) RejectTransaction(c *gin.Context) {
	adminID, _ := getUserID(c)
	txID := c.Param("transaction_id")
	note := c.PostForm("comment")

	if !actions.canManageTransaction(c, txID) {
		return
	}

	tx, err := actions.service.RejectTransaction(adminID, txID, note)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, tx)
}

// canManageTransaction enforces manager scoping: a manager only resolves
// transactions of users they created or refer. Admins pass through.
func (actions *Actions) canManageTransaction(c *gin.Context, txID string) bool {
	viewer, _ := getAuthUser(c)
	if viewer.RoleAlias == model.RoleAdmin {
		return true
	}

	tx, err := actions.service.GetRepo().GetTransaction(txID)
	if err != nil {
		abortWithError(c, NotFound, "Transaction not found")
		return false
	}
	owner, err := actions.service.GetRepo().GetUserByID(tx.UserID)
	if err != nil {
		abortWithError(c, NotFound, "Transaction not found")
		return false
	}
	if (owner.CreatedByID != nil && *owner.CreatedByID == viewer.ID) ||
		(owner.ParentIBID != nil && *owner.ParentIBID == viewer.ID) {
		return true
	}
	abortWithError(c, AccessDenied, "Transaction is outside your scope")
	return false
}

// GetPendingDeposits godoc
func (actions *Actions) GetPendingDeposits(c *gin.Context) {
	actions.listPending(c, model.TransactionType_DepositTrading)
}

// GetPendingWithdrawals godoc
func (actions *Actions) GetPendingWithdrawals(c *gin.Context) {
	actions.listPending(c, model.TransactionType_WithdrawTrading)
}

// GetPendingTransfers godoc
func (actions *Actions) GetPendingTransfers(c *gin.Context) {
	actions.listPending(c, model.TransactionType_InternalTransfer)
}

func (actions *Actions) listPending(c *gin.Context, txType model.TransactionType) {
	page, limit := getPagination(c)
	transactions, err := actions.service.GetRepo().GetTransactions(0, txType, model.TransactionStatus_Pending, nil, nil, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, transactions)
}

// GetCommissionTransactions godoc
//
// Filterable commission ledger listing for the admin surface.
func (actions *Actions) GetCommissionTransactions(c *gin.Context) {
	page, limit := getPagination(c)
	ibUserID, _ := strconv.ParseUint(c.Query("ib_user_id"), 10, 64)
	clientUserID, _ := strconv.ParseUint(c.Query("client_user_id"), 10, 64)
	positionID := c.Query("position_id")

	commissions, err := actions.service.GetRepo().GetCommissions(ibUserID, clientUserID, positionID, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, commissions)
}
