package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// DocumentUsecase is the client document flow used by DocumentHandler.
type DocumentUsecase interface {
	AddDocument(ctx context.Context, clientID string, in usecase.NewDocumentInput) (*domain.Document, error)
	ListDocuments(ctx context.Context, clientID string, category domain.DocumentCategory) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, clientID, documentID string) error
	CreateUploadURL(ctx context.Context, clientID string, req usecase.UploadRequest) (*domain.UploadTicket, error)
}

// AddDocumentRequest registers a file already uploaded to storage.
type AddDocumentRequest struct {
	FileName string `json:"fileName" binding:"required,max=255"`
	FileURL  string `json:"fileUrl" binding:"required,url,max=2048"`
	FileKey  string `json:"fileKey" binding:"required,max=1024"`
	FileType string `json:"fileType" binding:"required,max=100"`
	FileSize int64  `json:"fileSize" binding:"required,min=1"`
	Category string `json:"category" binding:"required"`
}

// UploadURLRequest asks for a presigned upload target.
type UploadURLRequest struct {
	FileName string `json:"fileName" binding:"required,max=255"`
	FileType string `json:"fileType" binding:"required,max=100"`
	FileSize int64  `json:"fileSize" binding:"required,min=1"`
	Category string `json:"category" binding:"required"`
}

// DocumentHandler serves the /documents routes.
type DocumentHandler struct {
	Responder
	documents DocumentUsecase
}

// NewDocumentHandler wires the document endpoints.
func NewDocumentHandler(documents DocumentUsecase, responder Responder) *DocumentHandler {
	return &DocumentHandler{Responder: responder, documents: documents}
}

// List returns the client's documents, optionally narrowed by ?category=.
func (h *DocumentHandler) List(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	docs, err := h.documents.ListDocuments(c.Request.Context(), client.ID, domain.DocumentCategory(c.Query("category")))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newDocumentList(docs))
}

// Create records document metadata.
func (h *DocumentHandler) Create(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req AddDocumentRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	doc, err := h.documents.AddDocument(c.Request.Context(), client.ID, usecase.NewDocumentInput{
		FileName: req.FileName,
		FileURL:  req.FileURL,
		FileKey:  req.FileKey,
		FileType: req.FileType,
		FileSize: req.FileSize,
		Category: domain.DocumentCategory(req.Category),
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusCreated, newDocumentResponse(*doc))
}

// UploadURL issues a presigned PUT URL for a new file.
func (h *DocumentHandler) UploadURL(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	ticket, err := h.documents.CreateUploadURL(c.Request.Context(), client.ID, usecase.UploadRequest{
		FileName: req.FileName,
		FileType: req.FileType,
		FileSize: req.FileSize,
		Category: domain.DocumentCategory(req.Category),
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, UploadTicketResponse{
		UploadURL: ticket.UploadURL,
		FileKey:   ticket.FileKey,
		FileURL:   ticket.FileURL,
		ExpiresAt: ticket.ExpiresAt,
		Headers:   ticket.Headers,
	})
}

// Delete removes one of the client's documents.
func (h *DocumentHandler) Delete(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id", "Document")
	if err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.documents.DeleteDocument(c.Request.Context(), client.ID, id); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Document deleted")
}
