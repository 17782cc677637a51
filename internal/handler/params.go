package handler

import (
	"strconv"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/gin-gonic/gin"
)

func pageParams(c *gin.Context) (models.PageParams, error) {
	params, err := models.ParsePageParams(c.Query("page"), c.Query("items_per_page"))
	if err != nil {
		return params, apperrors.Validation([]string{err.Error()})
	}
	return params, nil
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation([]string{name + " must be a positive integer"})
	}
	return uint(id), nil
}
