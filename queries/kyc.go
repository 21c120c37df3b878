package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/model"
)

var ErrKycDocumentNotFound = errors.New("KYC_DOCUMENT_NOT_FOUND")

// SaveKycDocument upserts the document of one kind for a user. Re-uploading
// replaces the previous file reference and resets the review state.
func (repo *Repo) SaveKycDocument(doc *model.KycDocument) error {
	existing := model.KycDocument{}
	db := repo.Conn.Table("kyc_documents").
		First(&existing, "user_id = ? AND kind = ?", doc.UserID, doc.Kind)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return repo.Conn.Table("kyc_documents").Create(doc).Error
	}
	if db.Error != nil {
		return db.Error
	}
	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	return repo.Conn.Table("kyc_documents").Save(doc).Error
}

// GetKycDocument returns the stored document of one kind for a user
func (repo *Repo) GetKycDocument(userID uint64, kind model.KycDocumentKind) (*model.KycDocument, error) {
	doc := model.KycDocument{}
	db := repo.ConnReader.Table("kyc_documents").
		First(&doc, "user_id = ? AND kind = ?", userID, kind)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrKycDocumentNotFound
	}
	return &doc, db.Error
}

// GetKycDocuments returns both documents of a user
func (repo *Repo) GetKycDocuments(userID uint64) ([]model.KycDocument, error) {
	docs := []model.KycDocument{}
	db := repo.ConnReader.Table("kyc_documents").
		Where("user_id = ?", userID).
		Order("kind ASC").
		Find(&docs)
	return docs, db.Error
}
