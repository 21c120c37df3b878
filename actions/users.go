package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gitlab.com/vtindex/backoffice_api/model"
)

// Register godoc
//
// Self-service client signup. A referral code links the account under the
// owning IB immediately.
func (actions *Actions) Register(c *gin.Context) {
	var request model.RegistrationRequest
	if err := c.ShouldBind(&request); err != nil {
		abortWithError(c, ValidationFailed, "Name, email and password are required")
		return
	}

	user, err := actions.service.RegisterUser(&request)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(Created, user)
}

// GetUsers godoc
//
// Staff user listing. Managers only see the users they created or the users
// referred under them.
func (actions *Actions) GetUsers(c *gin.Context) {
	viewer, _ := getAuthUser(c)
	page, limit := getPagination(c)
	role := model.RoleAlias(c.Query("role"))
	status := c.Query("status")
	query := c.Query("query")

	users, err := actions.service.GetUsersScoped(viewer, role, status, query, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, users)
}

// CreateUser godoc
//
// Staff-side user creation, recording the creator for manager scoping.
func (actions *Actions) CreateUser(c *gin.Context) {
	staffID, _ := getUserID(c)

	var request model.RegistrationRequest
	if err := c.ShouldBind(&request); err != nil {
		abortWithError(c, ValidationFailed, "Name, email and password are required")
		return
	}
	role := model.RoleAlias(c.PostForm("role_alias"))

	user, err := actions.service.CreateUserByStaff(staffID, &request, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(Created, user)
}

// GetUser godoc
//
// One user together with the derived earnings read model.
func (actions *Actions) GetUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}

	user, err := actions.service.GetUserWithEarnings(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, user)
}

// GetOwnProfile godoc
func (actions *Actions) GetOwnProfile(c *gin.Context) {
	userID, _ := getUserID(c)
	user, err := actions.service.GetUserWithEarnings(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, user)
}

// PromoteToIB godoc
//
// Turns a user into an introducing broker with a commission profile and
// links users who already registered with their referral code.
func (actions *Actions) PromoteToIB(c *gin.Context) {
	staffID, _ := getUserID(c)
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	profileID, err := strconv.ParseUint(c.PostForm("profile_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Commission profile id is required")
		return
	}

	user, err := actions.service.PromoteToIB(staffID, userID, profileID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, user)
}
