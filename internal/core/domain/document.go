package domain

import "time"

// DocumentCategory classifies an uploaded document.
type DocumentCategory string

const (
	CategoryIDDocument      DocumentCategory = "ID_DOCUMENT"
	CategoryBusinessLicense DocumentCategory = "BUSINESS_LICENSE"
	CategoryTaxDocument     DocumentCategory = "TAX_DOCUMENT"
	CategoryProofOfAddress  DocumentCategory = "PROOF_OF_ADDRESS"
	CategoryOther           DocumentCategory = "OTHER"
)

// Valid reports whether c is a known category.
func (c DocumentCategory) Valid() bool {
	switch c {
	case CategoryIDDocument, CategoryBusinessLicense, CategoryTaxDocument, CategoryProofOfAddress, CategoryOther:
		return true
	default:
		return false
	}
}

// VerificationStatus is the admin review state of a document.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// Valid reports whether s is a known verification status.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return true
	default:
		return false
	}
}

// IsReviewOutcome reports whether an admin may set a document to s.
func (s VerificationStatus) IsReviewOutcome() bool {
	return s == VerificationApproved || s == VerificationRejected
}

// Document is the metadata of a file held in external object storage.
type Document struct {
	ID                 string
	ClientID           string
	FileName           string
	FileURL            string
	FileKey            string
	FileType           string
	FileSize           int64
	Category           DocumentCategory
	VerificationStatus VerificationStatus
	RejectionReason    *string
	VerifiedAt         *time.Time
	UploadedAt         time.Time
}

// DocumentOwner is the subset of client fields shown next to a document in admin listings.
type DocumentOwner struct {
	ClientID  string
	Email     string
	FirstName string
	LastName  string
	Company   *string
}

// DocumentWithOwner pairs a document with its owning client.
type DocumentWithOwner struct {
	Document
	Owner DocumentOwner
}

// DocumentFilter narrows document listings. Zero values match everything.
type DocumentFilter struct {
	ClientID string
	Category DocumentCategory
	Status   VerificationStatus
	Limit    int
	Offset   int
}

// UploadTicket is a presigned upload target for a new document.
type UploadTicket struct {
	UploadURL string
	FileKey   string
	FileURL   string
	ExpiresAt time.Time
	Headers   map[string]string
}
