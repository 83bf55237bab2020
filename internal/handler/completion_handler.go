package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/internal/service"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
	"github.com/fci-zu/faculty-api/pkg/response"
)

// CompletionHandler exposes course completion endpoints.
type CompletionHandler struct {
	completions *service.CompletionService
}

// NewCompletionHandler constructs CompletionHandler.
func NewCompletionHandler(completions *service.CompletionService) *CompletionHandler {
	return &CompletionHandler{completions: completions}
}

// List returns completion records matching the query filters.
func (h *CompletionHandler) List(c *gin.Context) {
	var filter models.CompletionFilter
	filter.StudentID = c.Query("student")
	filter.CourseID = c.Query("course")
	if grade := c.Query("grade"); grade != "" {
		g := models.Grade(grade)
		if g.Valid() {
			filter.Grade = &g
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	completions, pagination, err := h.completions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, completions, pagination)
}

// Complete records that a student finished a registered course.
func (h *CompletionHandler) Complete(c *gin.Context) {
	var req service.CompleteCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	completion, err := h.completions.Complete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, completion)
}
