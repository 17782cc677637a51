package handler

import (
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/middleware"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	service      *service.AuthService
	secureCookie bool
}

func NewAuthHandler(service *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

type loginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, pair.RefreshToken, h.service.RefreshTokenMaxAge(), "/", "", h.secureCookie, true)

	response.JSON(c, http.StatusOK, gin.H{
		"access_token": pair.AccessToken,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)

	access, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Revoke(c.Request.Context(), middleware.AccessToken(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", h.secureCookie, true)
	response.Message(c, http.StatusOK, "Logged out successfully")
}
