package actions

import (
	"github.com/gin-gonic/gin"
)

// GetReferrals godoc
//
// Direct referrals of the signed in IB.
func (actions *Actions) GetReferrals(c *gin.Context) {
	userID, _ := getUserID(c)
	page, limit := getPagination(c)

	referrals, err := actions.service.GetReferrals(userID, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, referrals)
}

// GetReferralEarnings godoc
//
// Lifetime earnings and commission withdrawals of the signed in IB.
func (actions *Actions) GetReferralEarnings(c *gin.Context) {
	userID, _ := getUserID(c)

	earnings, err := actions.service.GetIBEarnings(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, earnings)
}

// GetOwnCommissions godoc
//
// Ledger rows earned by the signed in IB.
func (actions *Actions) GetOwnCommissions(c *gin.Context) {
	userID, _ := getUserID(c)
	page, limit := getPagination(c)

	commissions, err := actions.service.GetRepo().GetCommissionsByIB(userID, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, commissions)
}
