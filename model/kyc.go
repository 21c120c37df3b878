package model

import (
	"errors"
	"time"
)

// KycDocumentStatus is the verification state of a single KYC document
type KycDocumentStatus string

const (
	KycDocumentStatusNotUploaded KycDocumentStatus = "not_uploaded"
	KycDocumentStatusUploaded    KycDocumentStatus = "uploaded"
	KycDocumentStatusApproved    KycDocumentStatus = "approved"
	KycDocumentStatusRejected    KycDocumentStatus = "rejected"
)

func (s KycDocumentStatus) String() string {
	return string(s)
}

func (s KycDocumentStatus) IsValid() bool {
	switch s {
	case KycDocumentStatusNotUploaded,
		KycDocumentStatusUploaded,
		KycDocumentStatusApproved,
		KycDocumentStatusRejected:
		return true
	default:
		return false
	}
}

// KycDocumentKind names the two independent documents a client must provide
type KycDocumentKind string

const (
	KycDocumentKindIdentity  KycDocumentKind = "identity"
	KycDocumentKindResidence KycDocumentKind = "residence"
)

func (k KycDocumentKind) IsValid() bool {
	return k == KycDocumentKindIdentity || k == KycDocumentKindResidence
}

func GetKycDocumentKindFromString(s string) (KycDocumentKind, error) {
	kind := KycDocumentKind(s)
	if !kind.IsValid() {
		return kind, errors.New("Document kind is not valid")
	}
	return kind, nil
}

// KycDocument is the stored upload for one document kind. The file itself
// lives in external storage; only the reference is kept here.
type KycDocument struct {
	ID         uint64            `sql:"type:bigint" gorm:"primary_key" json:"id"`
	UserID     uint64            `gorm:"column:user_id" json:"user_id"`
	Kind       KycDocumentKind   `sql:"type:kyc_doc_kind_t" json:"kind"`
	FileName   string            `json:"file_name"`
	FilePath   string            `json:"-"`
	MimeType   string            `json:"mime_type"`
	SizeBytes  int64             `json:"size_bytes"`
	Status     KycDocumentStatus `sql:"type:kyc_doc_status_t" json:"status"`
	ReviewedBy *uint64           `gorm:"column:reviewed_by" json:"reviewed_by"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
