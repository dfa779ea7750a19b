package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// OnboardingUsecase is the wizard used by OnboardingHandler.
type OnboardingUsecase interface {
	ListSteps(ctx context.Context) (domain.StepCatalog, error)
	GetStatus(ctx context.Context, clientID string) (*domain.OnboardingOverview, error)
	SaveStepData(ctx context.Context, clientID string, n int, raw json.RawMessage) (*domain.StepProgress, error)
	CompleteStep(ctx context.Context, clientID string, n int, raw json.RawMessage) (*domain.OnboardingProgress, error)
}

// StepDataRequest carries a step payload. Its shape depends on the step.
type StepDataRequest struct {
	Data json.RawMessage `json:"data"`
}

// OnboardingHandler serves the /onboarding routes.
type OnboardingHandler struct {
	Responder
	onboarding OnboardingUsecase
}

// NewOnboardingHandler wires the onboarding endpoints.
func NewOnboardingHandler(onboarding OnboardingUsecase, responder Responder) *OnboardingHandler {
	return &OnboardingHandler{Responder: responder, onboarding: onboarding}
}

// Status returns the client's progress across every step.
func (h *OnboardingHandler) Status(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	overview, err := h.onboarding.GetStatus(c.Request.Context(), client.ID)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newStatusResponse(overview))
}

// Steps lists the step catalog.
func (h *OnboardingHandler) Steps(c *gin.Context) {
	steps, err := h.onboarding.ListSteps(c.Request.Context())
	if err != nil {
		h.RespondError(c, err)
		return
	}
	out := make([]StepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, newStepResponse(s))
	}
	h.ok(c, http.StatusOK, out)
}

// SaveData stores a draft for step :n.
func (h *OnboardingHandler) SaveData(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	n, err := pathStep(c)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	var req StepDataRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	if isNull(req.Data) {
		h.RespondError(c, domain.Validation("Invalid request", []domain.FieldError{{Field: "data", Message: "is required"}}))
		return
	}

	saved, err := h.onboarding.SaveStepData(c.Request.Context(), client.ID, n, req.Data)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, StepProgressResponse{
		StepID:      saved.StepID,
		Status:      saved.Status,
		Data:        saved.Data,
		CompletedAt: saved.CompletedAt,
		UpdatedAt:   saved.UpdatedAt,
	})
}

// Complete finishes step :n. An empty body completes it with the saved draft.
func (h *OnboardingHandler) Complete(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	n, err := pathStep(c)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	var req StepDataRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	data := req.Data
	if isNull(data) {
		data = nil
	}

	progress, err := h.onboarding.CompleteStep(c.Request.Context(), client.ID, n, data)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newProgressResponse(progress))
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
