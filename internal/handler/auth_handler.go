package handler

import (
	"net/http"

	"ischolar/internal/middleware"
	"ischolar/internal/model"
	"ischolar/internal/service"
	"ischolar/pkg/apperr"
	"ischolar/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService    service.AuthService
	profileService service.ProfileService
}

// NewAuthHandler sets up the routing dependencies for auth endpoints
func NewAuthHandler(authService service.AuthService, profileService service.ProfileService) *AuthHandler {
	return &AuthHandler{authService: authService, profileService: profileService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}

	router.GET("/me",
		middleware.RequireRole(model.RoleStudent, model.RoleReviewer, model.RoleApprover, model.RoleAdmin),
		h.GetMe)
	router.PUT("/me",
		middleware.RequireRole(model.RoleStudent, model.RoleReviewer, model.RoleApprover, model.RoleAdmin),
		h.UpdateMe)
}

// Signup handles POST /auth/signup
// @Summary      Sign up
// @Description  Registers a pending account and emails a 24h single-use confirmation token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignupRequest  true  "Sign-up payload"
// @Success      202      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.authService.Signup(c.Request.Context(), req); err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, gin.H{
		"message": "Check your email to confirm your account",
	}))
}

// VerifyEmail handles POST /auth/verify-email
// @Summary      Verify email
// @Description  Consumes the confirmation token and promotes the pending sign-up to a profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VerifyEmailRequest  true  "Token payload"
// @Success      201      {object}  response.Response{data=service.ProfileResponse}
// @Failure      400      {object}  response.Response
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req service.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Verification token is required"))
		return
	}

	profile, err := h.authService.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, profile))
}

// ResendVerification handles POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req service.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"message": "Verification email sent",
	}))
}

// Login handles POST /auth/login to authenticate and return a JWT token
// @Summary      Login
// @Description  Authenticates by email and password, returning JWT access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	middleware.SetTokenCookies(c, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh handles POST /auth/refresh to rotate the refresh token
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie("refresh_token")
	if refreshToken == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&body)
		refreshToken = body.RefreshToken
	}
	if refreshToken == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Refresh token is missing"))
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	middleware.SetTokenCookies(c, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie("refresh_token")
	_ = h.authService.Logout(c.Request.Context(), refreshToken)
	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out"}))
}

// GetMe handles GET /me to return the current authenticated profile
// @Summary      Get current profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ProfileResponse}
// @Failure      404  {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	// Reconcile staff accounts stuck in a student verification state
	_ = h.profileService.AutoVerifyStaffAccount(c.Request.Context(), userID)

	profile, err := h.profileService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// UpdateMe handles PUT /me for self-service profile edits
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// currentUserID pulls the JWT subject set by the auth middleware
func currentUserID(c *gin.Context) string {
	value, exists := c.Get("userID")
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}
