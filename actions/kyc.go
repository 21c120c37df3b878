package actions

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/vtindex/backoffice_api/model"
)

// UploadDocument godoc
//
// Multipart KYC document upload. Size and mime type are validated in the
// service; the file lands under the configured upload directory.
func (actions *Actions) UploadDocument(c *gin.Context) {
	log := getlog(c)
	userID, _ := getUserID(c)

	kind, err := model.GetKycDocumentKindFromString(c.PostForm("kind"))
	if err != nil {
		abortWithError(c, BadRequest, "Document kind must be identity or residence")
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		abortWithError(c, BadRequest, "Document file is required")
		return
	}

	storedName := fmt.Sprintf("%d_%s_%d%s", userID, kind, time.Now().Unix(), filepath.Ext(file.Filename))
	storedPath := filepath.Join(actions.cfg.Server.KYC.UploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		log.Error().Err(err).
			Str("section", "actions").
			Str("action", "kyc_upload").
			Uint64("user_id", userID).
			Msg("Unable to store uploaded document")
		abortWithError(c, ServerError, "Unable to store document")
		return
	}

	mimeType := file.Header.Get("Content-Type")
	doc, err := actions.service.UploadKycDocument(userID, kind, file.Filename, storedPath, mimeType, file.Size)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(Created, doc)
}

// VerifyDocument godoc
//
// Staff review of an uploaded document: approve or reject.
func (actions *Actions) VerifyDocument(c *gin.Context) {
	adminID, _ := getUserID(c)

	kind, err := model.GetKycDocumentKindFromString(c.Param("kind"))
	if err != nil {
		abortWithError(c, BadRequest, "Document kind must be identity or residence")
		return
	}
	userID, err := strconv.ParseUint(c.PostForm("user_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "User id is required")
		return
	}
	approve, err := strconv.ParseBool(c.PostForm("approve"))
	if err != nil {
		abortWithError(c, BadRequest, "Decision must be true or false")
		return
	}

	doc, err := actions.service.ReviewKycDocument(adminID, userID, kind, approve)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, doc)
}
