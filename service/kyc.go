package service

import (
	"fmt"
	"net/http"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/service/audit"
)

// UploadKycDocument validates and stores one KYC document upload, setting
// the matching user status column to uploaded.
func (service *Service) UploadKycDocument(userID uint64, kind model.KycDocumentKind, fileName, filePath, mimeType string, sizeBytes int64) (*model.KycDocument, error) {
	user, err := service.repo.GetUserByID(userID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}

	maxBytes := service.cfg.Server.KYC.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 2 * 1024 * 1024
	}
	if sizeBytes <= 0 || sizeBytes > maxBytes {
		return nil, httputils.NewRequestError(http.StatusBadRequest, "Document exceeds the upload size limit", nil)
	}
	if !service.isAllowedDocumentType(mimeType) {
		return nil, httputils.NewRequestError(http.StatusBadRequest, "Document type must be jpeg, png or pdf", nil)
	}

	doc := &model.KycDocument{
		UserID:    userID,
		Kind:      kind,
		FileName:  fileName,
		FilePath:  filePath,
		MimeType:  mimeType,
		SizeBytes: sizeBytes,
		Status:    model.KycDocumentStatusUploaded,
	}
	if err := service.repo.SaveKycDocument(doc); err != nil {
		return nil, err
	}

	switch kind {
	case model.KycDocumentKindIdentity:
		user.IdentityDocStatus = model.KycDocumentStatusUploaded
	case model.KycDocumentKindResidence:
		user.ResidenceDocStatus = model.KycDocumentStatusUploaded
	}
	if err := service.repo.UpdateUser(user); err != nil {
		return nil, err
	}

	service.audit.Record(audit.Event{
		UserID:   userID,
		Activity: fmt.Sprintf("Uploaded %s document", kind),
		Type:     model.ActivityType_Create,
		Category: model.ActivityCategory_Client,
	})
	return doc, nil
}

func (service *Service) isAllowedDocumentType(mimeType string) bool {
	allowed := service.cfg.Server.KYC.AllowedTypes
	if len(allowed) == 0 {
		allowed = []string{"image/jpeg", "image/png", "application/pdf"}
	}
	for _, t := range allowed {
		if t == mimeType {
			return true
		}
	}
	return false
}

// ReviewKycDocument approves or rejects an uploaded document and mirrors
// the decision onto the user row.
func (service *Service) ReviewKycDocument(adminID, userID uint64, kind model.KycDocumentKind, approve bool) (*model.KycDocument, error) {
	user, err := service.repo.GetUserByID(userID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}
	doc, err := service.repo.GetKycDocument(userID, kind)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "Document not found", err)
	}
	if doc.Status != model.KycDocumentStatusUploaded {
		return nil, httputils.NewRequestError(http.StatusConflict, "Document is not awaiting review", nil)
	}

	status := model.KycDocumentStatusApproved
	if !approve {
		status = model.KycDocumentStatusRejected
	}
	doc.Status = status
	doc.ReviewedBy = &adminID
	if err := service.repo.SaveKycDocument(doc); err != nil {
		return nil, err
	}

	switch kind {
	case model.KycDocumentKindIdentity:
		user.IdentityDocStatus = status
	case model.KycDocumentKindResidence:
		user.ResidenceDocStatus = status
	}
	if err := service.repo.UpdateUser(user); err != nil {
		return nil, err
	}

	service.audit.Record(audit.Event{
		UserID:   adminID,
		Activity: fmt.Sprintf("Reviewed %s document of user %d: %s", kind, userID, status),
		Type:     model.ActivityType_Update,
		Category: model.ActivityCategory_Management,
	})
	service.SendKycReviewedEmail(user, kind, status)
	service.notifyUser(user.ID,
		"Document review",
		fmt.Sprintf("Your %s document was %s", kind, status))
	return doc, nil
}
