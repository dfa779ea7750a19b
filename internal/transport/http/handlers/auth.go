package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/usecase"
)

// AuthUsecase is the account flow used by AuthHandler.
type AuthUsecase interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error)
	Login(ctx context.Context, email, password string) (*usecase.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
	Logout(ctx context.Context, clientID, refreshToken string) error
	SendVerification(ctx context.Context, clientID string) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// SignupRequest is the payload of POST /auth/signup.
type SignupRequest struct {
	Email     string  `json:"email" binding:"required,email,max=255"`
	Password  string  `json:"password" binding:"required,max=128"`
	FirstName string  `json:"firstName" binding:"required,max=100"`
	LastName  string  `json:"lastName" binding:"required,max=100"`
	Company   *string `json:"company" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
}

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest optionally names the session to end.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest is the payload of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the payload of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,max=128"`
}

// VerifyEmailRequest is the payload of POST /auth/verify-email.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

const forgotPasswordMessage = "If an account exists for that email, a reset link has been sent"

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	Responder
	auth   AuthUsecase
	logger *zap.Logger
}

// NewAuthHandler wires the auth endpoints.
func NewAuthHandler(auth AuthUsecase, responder Responder, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{Responder: responder, auth: auth, logger: logger}
}

// Signup creates an account and signs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Phone:     req.Phone,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusCreated, newAuthResponse(result))
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newAuthResponse(result))
}

// Refresh rotates a refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, newTokensResponse(pair))
}

// Logout ends one session, or all of them when no refresh token is given.
func (h *AuthHandler) Logout(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req LogoutRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), client.ID, req.RefreshToken); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Logged out successfully")
}

// SendVerification mails a fresh verification link.
func (h *AuthHandler) SendVerification(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	if err := h.auth.SendVerification(c.Request.Context(), client.ID); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Verification email sent")
}

// VerifyEmail consumes a verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.auth.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Email verified successfully")
}

// ForgotPassword starts a password reset. The answer is the same whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, forgotPasswordMessage)
}

// ResetPassword sets a new password from a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		h.RespondError(c, err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.RespondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Password has been reset")
}

func newAuthResponse(r *usecase.AuthResult) AuthResponse {
	return AuthResponse{
		Client: newClientResponse(r.Client),
		Tokens: newTokensResponse(r.Tokens),
	}
}
