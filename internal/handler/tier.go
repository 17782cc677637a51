package handler

import (
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/gin-gonic/gin"
)

type TierHandler struct {
	service *service.TierService
}

func NewTierHandler(service *service.TierService) *TierHandler {
	return &TierHandler{service: service}
}

type tierCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type tierUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=50"`
}

func (h *TierHandler) Create(c *gin.Context) {
	var req tierCreateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	tier, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, tier)
}

func (h *TierHandler) List(c *gin.Context) {
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

func (h *TierHandler) Get(c *gin.Context) {
	tier, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tier)
}

func (h *TierHandler) Update(c *gin.Context) {
	var req tierUpdateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), c.Param("name"), req.Name); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Tier updated")
}

func (h *TierHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Tier deleted")
}
