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

// ActivityHandler exposes extracurricular activity endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// List returns activities matching the query filters.
func (h *ActivityHandler) List(c *gin.Context) {
	var filter models.ActivityFilter
	filter.StudentID = c.Query("student")
	filter.Type = c.Query("type")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	activities, pagination, err := h.activities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, pagination)
}

// Get returns an activity by id.
func (h *ActivityHandler) Get(c *gin.Context) {
	activity, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Create records an activity for a student.
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.activities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Delete removes an activity record.
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
