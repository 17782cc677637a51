package handler

import (
	"fmt"
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/middleware"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type userCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=30"`
	Username string `json:"username" validate:"required,min=2,max=20,username"`
	Email    string `json:"email" validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

type userUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=2,max=30"`
	Username        *string `json:"username" validate:"omitempty,min=2,max=20,username"`
	Email           *string `json:"email" validate:"omitempty,email,max=50"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url"`
}

type userTierRequest struct {
	TierID uint `json:"tier_id" validate:"required,gt=0"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userCreateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.Create(c.Request.Context(), service.UserCreate{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, user)
}

func (h *UserHandler) List(c *gin.Context) {
	params, err := pageParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page)
}

func (h *UserHandler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, middleware.CurrentUser(c))
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req userUpdateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), service.UserUpdate{
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "User updated")
}

func (h *UserHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), middleware.AccessToken(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "User deleted")
}

func (h *UserHandler) HardDelete(c *gin.Context) {
	if err := h.service.HardDelete(c.Request.Context(), c.Param("username"), middleware.AccessToken(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "User deleted from the database")
}

func (h *UserHandler) RateLimits(c *gin.Context) {
	out, err := h.service.RateLimits(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, out)
}

func (h *UserHandler) Tier(c *gin.Context) {
	out, err := h.service.Tier(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, out)
}

func (h *UserHandler) SetTier(c *gin.Context) {
	var req userTierRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.SetTier(c.Request.Context(), c.Param("username"), req.TierID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, fmt.Sprintf("User %s Tier updated", user.Name))
}
