package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// ProfileUsecase is the account management used by ProfileHandler.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, clientID string) (*usecase.Profile, error)
	UpdateProfile(ctx context.Context, clientID string, update domain.ProfileUpdate) (*domain.Client, error)
	ChangePassword(ctx context.Context, clientID, current, next string) error
	DeleteAccount(ctx context.Context, clientID, password string) error
}

// ReplaceProfileRequest is the payload of PUT /profile.
type ReplaceProfileRequest struct {
	FirstName string  `json:"firstName" binding:"required,max=100"`
	LastName  string  `json:"lastName" binding:"required,max=100"`
	Company   *string `json:"company" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,max=2048"`
}

// PatchProfileRequest is the payload of PATCH /profile. Absent fields stay unchanged.
type PatchProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Company   *string `json:"company" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,max=2048"`
}

// ChangePasswordRequest is the payload of POST /profile/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,max=128"`
}

// DeleteAccountRequest confirms account deletion.
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// ProfileHandler serves the /profile routes.
type ProfileHandler struct {
	Responder
	profiles ProfileUsecase
}

// NewProfileHandler wires the profile endpoints.
func NewProfileHandler(profiles ProfileUsecase, responder Responder) *ProfileHandler {
	return &ProfileHandler{Responder: responder, profiles: profiles}
}

// Get returns the signed-in client.
func (h *ProfileHandler) Get(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	profile, err := h.profiles.GetProfile(c.Request.Context(), client.ID)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, ProfileResponse{
		ClientResponse: newClientResponse(profile.Client),
		Onboarding:     newProgressResponse(profile.Onboarding),
	})
}

// Replace sets every editable profile field.
func (h *ProfileHandler) Replace(c *gin.Context) {
	var req ReplaceProfileRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	h.update(c, domain.ProfileUpdate{
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		Company:   req.Company,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
}

// Patch changes the fields present in the body.
func (h *ProfileHandler) Patch(c *gin.Context) {
	var req PatchProfileRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	h.update(c, domain.ProfileUpdate(req))
}

func (h *ProfileHandler) update(c *gin.Context, update domain.ProfileUpdate) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	updated, err := h.profiles.UpdateProfile(c.Request.Context(), client.ID, update)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newClientResponse(*updated))
}

// ChangePassword replaces the password and ends every session.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.profiles.ChangePassword(c.Request.Context(), client.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Password changed successfully")
}

// DeleteAccount removes the client and everything it owns.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req DeleteAccountRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.profiles.DeleteAccount(c.Request.Context(), client.ID, req.Password); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Account deleted")
}
