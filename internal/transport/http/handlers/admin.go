package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// AdminUsecase is the review console used by AdminHandler.
type AdminUsecase interface {
	Stats(ctx context.Context) (*domain.AdminStats, error)
	ListActivity(ctx context.Context, page, limit int) (*usecase.Page[domain.ActivityEntry], error)
	ListClients(ctx context.Context, q usecase.ClientQuery) (*usecase.Page[domain.ClientSummary], error)
	GetClient(ctx context.Context, clientID string) (*usecase.ClientDetail, error)
	ListDocuments(ctx context.Context, q usecase.DocumentQuery) (*usecase.Page[domain.DocumentWithOwner], error)
	SetDocumentStatus(ctx context.Context, adminID, documentID string, in usecase.ReviewInput) (*domain.Document, error)
	BulkApprove(ctx context.Context, adminID string, ids []string) (*usecase.BulkApproveResult, error)
	ApproveAllForClient(ctx context.Context, adminID, clientID string) (*usecase.BulkApproveResult, error)
}

// ReviewRequest is the payload of PATCH /admin/documents/:id.
type ReviewRequest struct {
	Status string  `json:"status" binding:"required,oneof=APPROVED REJECTED"`
	Reason *string `json:"reason" binding:"omitempty,max=1000"`
}

// BulkApproveRequest lists documents to approve.
type BulkApproveRequest struct {
	DocumentIDs []string `json:"documentIds" binding:"required,min=1,max=500,dive,uuid"`
}

// AdminHandler serves the /admin routes.
type AdminHandler struct {
	Responder
	admin AdminUsecase
}

// NewAdminHandler wires the admin endpoints.
func NewAdminHandler(admin AdminUsecase, responder Responder) *AdminHandler {
	return &AdminHandler{Responder: responder, admin: admin}
}

// Stats returns the dashboard counters.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, StatsResponse(*stats))
}

// Activity pages through the audit log, newest first.
func (h *AdminHandler) Activity(c *gin.Context) {
	page, err := h.admin.ListActivity(c.Request.Context(), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newPageResponse(page, func(e domain.ActivityEntry) ActivityResponse {
		details := e.Details
		if details == nil {
			details = map[string]any{}
		}
		return ActivityResponse{
			ID:         e.ID,
			AdminID:    e.AdminID,
			AdminEmail: e.AdminEmail,
			AdminName:  e.AdminName,
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Details:    details,
			CreatedAt:  e.CreatedAt,
		}
	}))
}

// Clients lists client accounts with their onboarding summary.
func (h *AdminHandler) Clients(c *gin.Context) {
	page, err := h.admin.ListClients(c.Request.Context(), usecase.ClientQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newPageResponse(page, func(s domain.ClientSummary) ClientSummaryResponse {
		return ClientSummaryResponse{
			ClientResponse:   newClientResponse(s.Client),
			OnboardingStatus: s.OnboardingStatus,
			CurrentStep:      s.CurrentStep,
			DocumentCount:    s.DocumentCount,
			PendingDocuments: s.PendingDocuments,
		}
	}))
}

// Client returns one client with its onboarding and documents.
func (h *AdminHandler) Client(c *gin.Context) {
	id, err := pathID(c, "id", "Client")
	if err != nil {
		h.RespondError(c, err)
		return
	}
	detail, err := h.admin.GetClient(c.Request.Context(), id)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, ClientDetailResponse{
		ClientResponse: newClientResponse(detail.Client),
		Onboarding:     newProgressResponse(detail.Onboarding),
		Documents:      newDocumentList(detail.Documents),
	})
}

// Documents lists documents across clients, filtered by ?status= and ?category=.
func (h *AdminHandler) Documents(c *gin.Context) {
	page, err := h.admin.ListDocuments(c.Request.Context(), usecase.DocumentQuery{
		Status:   domain.VerificationStatus(c.Query("status")),
		Category: domain.DocumentCategory(c.Query("category")),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newPageResponse(page, func(d domain.DocumentWithOwner) AdminDocumentResponse {
		return AdminDocumentResponse{
			DocumentResponse: newDocumentResponse(d.Document),
			Client: OwnerResponse{
				ID:        d.Owner.ClientID,
				Email:     d.Owner.Email,
				FirstName: d.Owner.FirstName,
				LastName:  d.Owner.LastName,
				Company:   d.Owner.Company,
			},
		}
	}))
}

// Review approves or rejects one document.
func (h *AdminHandler) Review(c *gin.Context) {
	admin, ok := h.client(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id", "Document")
	if err != nil {
		h.RespondError(c, err)
		return
	}
	var req ReviewRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	doc, err := h.admin.SetDocumentStatus(c.Request.Context(), admin.ID, id, usecase.ReviewInput{
		Status: domain.VerificationStatus(req.Status),
		Reason: req.Reason,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newDocumentResponse(*doc))
}

// BulkApprove approves the pending documents among the given ids.
func (h *AdminHandler) BulkApprove(c *gin.Context) {
	admin, ok := h.client(c)
	if !ok {
		return
	}
	var req BulkApproveRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	result, err := h.admin.BulkApprove(c.Request.Context(), admin.ID, req.DocumentIDs)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, BulkApproveResponse(*result))
}

// ApproveAll approves every pending document of client :id.
func (h *AdminHandler) ApproveAll(c *gin.Context) {
	admin, ok := h.client(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id", "Client")
	if err != nil {
		h.RespondError(c, err)
		return
	}
	result, err := h.admin.ApproveAllForClient(c.Request.Context(), admin.ID, id)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, BulkApproveResponse(*result))
}
