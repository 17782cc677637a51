package handler

import (
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/gin-gonic/gin"
)

// Rate limit routes share the tier segment, registered as :name.
type RateLimitHandler struct {
	service *service.RateLimitService
}

func NewRateLimitHandler(service *service.RateLimitService) *RateLimitHandler {
	return &RateLimitHandler{service: service}
}

type rateLimitCreateRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=50"`
	Path   string `json:"path" validate:"required"`
	Limit  *int   `json:"limit" validate:"required,gte=0"`
	Period int    `json:"period" validate:"required,gt=0"`
}

type rateLimitUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=50"`
	Path   *string `json:"path" validate:"omitempty,min=1"`
	Limit  *int    `json:"limit" validate:"omitempty,gte=0"`
	Period *int    `json:"period" validate:"omitempty,gt=0"`
}

func (h *RateLimitHandler) Create(c *gin.Context) {
	var req rateLimitCreateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	rule, err := h.service.Create(c.Request.Context(), c.Param("name"), service.RateLimitCreate{
		Name:   req.Name,
		Path:   req.Path,
		Limit:  *req.Limit,
		Period: req.Period,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, rule)
}

func (h *RateLimitHandler) List(c *gin.Context) {
	params, err := pageParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), c.Param("name"), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page)
}

func (h *RateLimitHandler) Get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	rule, err := h.service.Get(c.Request.Context(), c.Param("name"), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rule)
}

func (h *RateLimitHandler) Update(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req rateLimitUpdateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	err = h.service.Update(c.Request.Context(), c.Param("name"), id, service.RateLimitUpdate{
		Name:   req.Name,
		Path:   req.Path,
		Limit:  req.Limit,
		Period: req.Period,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Rate Limit updated")
}

func (h *RateLimitHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("name"), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Rate Limit deleted")
}
