package handler

import (
	"net/http"

	"github.com/aman-churiwal/blog-api/internal/middleware"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type postCreateRequest struct {
	Title    string  `json:"title" validate:"required,min=2,max=30"`
	Text     string  `json:"text" validate:"required,min=1,max=63206"`
	MediaURL *string `json:"media_url" validate:"omitempty,url"`
}

type postUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=2,max=30"`
	Text     *string `json:"text" validate:"omitempty,min=1,max=63206"`
	MediaURL *string `json:"media_url" validate:"omitempty,url"`
}

func (h *PostHandler) Create(c *gin.Context) {
	var req postCreateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	post, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), service.PostCreate{
		Title:    req.Title,
		Text:     req.Text,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, post)
}

func (h *PostHandler) List(c *gin.Context) {
	params, err := pageParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), c.Param("username"), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page)
}

func (h *PostHandler) Get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	post, err := h.service.Get(c.Request.Context(), c.Param("username"), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req postUpdateRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	err = h.service.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), id, service.PostUpdate{
		Title:    req.Title,
		Text:     req.Text,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Post updated")
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Post deleted")
}

func (h *PostHandler) HardDelete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.HardDelete(c.Request.Context(), c.Param("username"), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Post deleted from the database")
}
