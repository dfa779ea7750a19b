package handlers

import (
	"encoding/json"
	"time"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// ClientResponse is the public view of a client account.
type ClientResponse struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Company       *string     `json:"company"`
	Phone         *string     `json:"phone"`
	AvatarURL     *string     `json:"avatarUrl"`
	EmailVerified bool        `json:"emailVerified"`
	Role          domain.Role `json:"role"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func newClientResponse(c domain.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		Email:         c.Email,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Company:       c.Company,
		Phone:         c.Phone,
		AvatarURL:     c.AvatarURL,
		EmailVerified: c.EmailVerified,
		Role:          c.Role,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// TokensResponse carries an issued token pair.
type TokensResponse struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	TokenType             string    `json:"tokenType"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

func newTokensResponse(p domain.TokenPair) TokensResponse {
	return TokensResponse{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		TokenType:             "Bearer",
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
	}
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Client ClientResponse `json:"client"`
	Tokens TokensResponse `json:"tokens"`
}

// ProgressResponse summarizes onboarding progress.
type ProgressResponse struct {
	CurrentStep int                     `json:"currentStep"`
	Status      domain.OnboardingStatus `json:"status"`
	CompletedAt *time.Time              `json:"completedAt"`
}

func newProgressResponse(p *domain.OnboardingProgress) *ProgressResponse {
	if p == nil {
		return nil
	}
	return &ProgressResponse{CurrentStep: p.CurrentStep, Status: p.Status, CompletedAt: p.CompletedAt}
}

// ProfileResponse is the signed-in client with its onboarding summary.
type ProfileResponse struct {
	ClientResponse
	Onboarding *ProgressResponse `json:"onboarding"`
}

// StepResponse is one catalog step.
type StepResponse struct {
	ID          string `json:"id"`
	StepNumber  int    `json:"stepNumber"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

func newStepResponse(s domain.OnboardingStep) StepResponse {
	return StepResponse{
		ID:          s.ID,
		StepNumber:  s.StepNumber,
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
		IsRequired:  s.IsRequired,
	}
}

// StepStateResponse is a catalog step with the client's progress on it.
type StepStateResponse struct {
	StepResponse
	Status      domain.StepStatus `json:"status"`
	Data        json.RawMessage   `json:"data"`
	CompletedAt *time.Time        `json:"completedAt"`
}

// StatusResponse is the onboarding overview.
type StatusResponse struct {
	CurrentStep    int                     `json:"currentStep"`
	Status         domain.OnboardingStatus `json:"status"`
	TotalSteps     int                     `json:"totalSteps"`
	CompletedSteps int                     `json:"completedSteps"`
	Progress       int                     `json:"progress"`
	CompletedAt    *time.Time              `json:"completedAt"`
	Steps          []StepStateResponse     `json:"steps"`
}

func newStatusResponse(o *domain.OnboardingOverview) StatusResponse {
	steps := make([]StepStateResponse, 0, len(o.Steps))
	for _, s := range o.Steps {
		data := s.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		steps = append(steps, StepStateResponse{
			StepResponse: newStepResponse(s.Step),
			Status:       s.Status,
			Data:         data,
			CompletedAt:  s.CompletedAt,
		})
	}
	return StatusResponse{
		CurrentStep:    o.Progress.CurrentStep,
		Status:         o.Progress.Status,
		TotalSteps:     o.TotalSteps,
		CompletedSteps: o.CompletedSteps,
		Progress:       o.Percent(),
		CompletedAt:    o.Progress.CompletedAt,
		Steps:          steps,
	}
}

// StepProgressResponse is a saved step record.
type StepProgressResponse struct {
	StepID      string            `json:"stepId"`
	Status      domain.StepStatus `json:"status"`
	Data        json.RawMessage   `json:"data"`
	CompletedAt *time.Time        `json:"completedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// DocumentResponse is the public view of a document.
type DocumentResponse struct {
	ID                 string                    `json:"id"`
	ClientID           string                    `json:"clientId"`
	FileName           string                    `json:"fileName"`
	FileURL            string                    `json:"fileUrl"`
	FileKey            string                    `json:"fileKey"`
	FileType           string                    `json:"fileType"`
	FileSize           int64                     `json:"fileSize"`
	Category           domain.DocumentCategory   `json:"category"`
	VerificationStatus domain.VerificationStatus `json:"verificationStatus"`
	RejectionReason    *string                   `json:"rejectionReason"`
	VerifiedAt         *time.Time                `json:"verifiedAt"`
	UploadedAt         time.Time                 `json:"uploadedAt"`
}

func newDocumentResponse(d domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:                 d.ID,
		ClientID:           d.ClientID,
		FileName:           d.FileName,
		FileURL:            d.FileURL,
		FileKey:            d.FileKey,
		FileType:           d.FileType,
		FileSize:           d.FileSize,
		Category:           d.Category,
		VerificationStatus: d.VerificationStatus,
		RejectionReason:    d.RejectionReason,
		VerifiedAt:         d.VerifiedAt,
		UploadedAt:         d.UploadedAt,
	}
}

func newDocumentList(docs []domain.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, newDocumentResponse(d))
	}
	return out
}

// OwnerResponse names the client a document belongs to.
type OwnerResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Company   *string `json:"company"`
}

// AdminDocumentResponse is a document with its owner.
type AdminDocumentResponse struct {
	DocumentResponse
	Client OwnerResponse `json:"client"`
}

// UploadTicketResponse is a presigned upload target.
type UploadTicketResponse struct {
	UploadURL string            `json:"uploadUrl"`
	FileKey   string            `json:"fileKey"`
	FileURL   string            `json:"fileUrl"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PageResponse is a paginated listing.
type PageResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func newPageResponse[S, T any](p *usecase.Page[S], convert func(S) T) PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, convert(item))
	}
	return PageResponse[T]{
		Items: items,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages(),
		},
	}
}

// StatsResponse is the admin dashboard summary.
type StatsResponse struct {
	TotalClients        int `json:"totalClients"`
	CompletedOnboarding int `json:"completedOnboarding"`
	PendingDocuments    int `json:"pendingDocuments"`
	ApprovedDocuments   int `json:"approvedDocuments"`
	RejectedDocuments   int `json:"rejectedDocuments"`
	TotalDocuments      int `json:"totalDocuments"`
}

// ActivityResponse is one audit log entry.
type ActivityResponse struct {
	ID         string         `json:"id"`
	AdminID    string         `json:"adminId"`
	AdminEmail string         `json:"adminEmail"`
	AdminName  string         `json:"adminName"`
	Action     string         `json:"action"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// ClientSummaryResponse is a row of the admin client listing.
type ClientSummaryResponse struct {
	ClientResponse
	OnboardingStatus domain.OnboardingStatus `json:"onboardingStatus"`
	CurrentStep      int                     `json:"currentStep"`
	DocumentCount    int                     `json:"documentCount"`
	PendingDocuments int                     `json:"pendingDocuments"`
}

// ClientDetailResponse is the admin view of one client.
type ClientDetailResponse struct {
	ClientResponse
	Onboarding *ProgressResponse  `json:"onboarding"`
	Documents  []DocumentResponse `json:"documents"`
}

// BulkApproveResponse reports approved documents.
type BulkApproveResponse struct {
	Count       int      `json:"count"`
	DocumentIDs []string `json:"documentIds"`
}
