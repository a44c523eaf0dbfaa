package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
)

type AuthHandler struct {
	auth *usecase.AuthUseCase
}

func NewAuthHandler(auth *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type signUpReq struct {
	FirstName string `json:"firstName" binding:"required,min=3"`
	LastName  string `json:"lastName" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

type signInReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sendOTPReq struct {
	Email   string         `json:"email" binding:"required,email"`
	OTPType domain.OTPType `json:"otpType" binding:"required"`
}

type verifyOTPReq struct {
	Email   string         `json:"email" binding:"required,email"`
	OTP     string         `json:"otpCode" binding:"required,len=6,numeric"`
	OTPType domain.OTPType `json:"otpType" binding:"required"`
}

type resetPasswordReq struct {
	RequestType string `json:"requestType" binding:"required,oneof=change_password forgot_password"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type tokenRes struct {
	AccessToken string `json:"accessToken"`
}

type signInRes struct {
	AccessToken string `json:"accessToken"`
	IsVerified  bool   `json:"isVerified"`
}

// POST /api/auth/user-register
func (h *AuthHandler) Register(c *gin.Context) error {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	token, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	respond(c, http.StatusCreated, "User registered successfully!", tokenRes{AccessToken: token})
	return nil
}

// POST /api/auth/sign-up/user
func (h *AuthHandler) SignUp(c *gin.Context) error {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	token, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	respond(c, http.StatusCreated, "User registered successfully!", tokenRes{AccessToken: token})
	return nil
}

// POST /api/auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) error {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	token, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrEmailNotVerified) {
		respond(c, http.StatusUnauthorized, "Please verify your email first!", signInRes{})
		return nil
	}
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "User signed in successfully!", signInRes{AccessToken: token, IsVerified: true})
	return nil
}

// POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) error {
	var req sendOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	if !req.OTPType.Valid() {
		return invalidPayload(errors.New("unknown otp type"))
	}
	if err := h.auth.SendOTP(c.Request.Context(), req.Email, req.OTPType); err != nil {
		return err
	}
	respond(c, http.StatusOK, "OTP sent successfully!", nil)
	return nil
}

// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) error {
	var req verifyOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	if !req.OTPType.Valid() {
		return invalidPayload(errors.New("unknown otp type"))
	}
	token, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP, req.OTPType)
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "OTP verified successfully!", tokenRes{AccessToken: token})
	return nil
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return invalidPayload(err)
	}
	if req.RequestType == usecase.ResetChangePassword && req.OldPassword == "" {
		return invalidPayload(errors.New("oldPassword is required"))
	}
	err = h.auth.ResetPassword(c.Request.Context(), p, usecase.ResetPasswordInput{
		RequestType: req.RequestType,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Password updated successfully!", nil)
	return nil
}

type verifyTokenRes struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	IsVerified  bool        `json:"isVerified"`
	AccessToken string      `json:"accessToken,omitempty"`
}

// GET /api/auth/verify-token?revalidateToken=true
func (h *AuthHandler) VerifyToken(c *gin.Context) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	user, token, err := h.auth.VerifyToken(c.Request.Context(), p, c.Query("revalidateToken") == "true")
	if err != nil {
		return err
	}
	respond(c, http.StatusOK, "Token verified successfully!", verifyTokenRes{
		ID:          user.ID.String(),
		Email:       user.Email,
		Role:        user.Role,
		IsVerified:  user.IsVerified,
		AccessToken: token,
	})
	return nil
}
