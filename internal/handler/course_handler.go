package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/internal/service"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
	"github.com/fci-zu/faculty-api/pkg/response"
)

// CourseHandler exposes catalog endpoints.
type CourseHandler struct {
	courses       *service.CourseService
	prerequisites *service.PrerequisiteService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, prerequisites *service.PrerequisiteService) *CourseHandler {
	return &CourseHandler{courses: courses, prerequisites: prerequisites}
}

// List returns courses matching the query filters.
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.DepartmentID = c.Query("department")
	if term := c.Query("term"); term != "" {
		if v, err := strconv.Atoi(term); err == nil {
			filter.Term = &v
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

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get returns a course by id with its associations.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// GetByName returns a course by its exact name.
func (h *CourseHandler) GetByName(c *gin.Context) {
	course, err := h.courses.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create adds a course to the catalog.
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update rewrites a course's catalog fields.
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete removes a course.
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignDepartment links a course to a department, idempotently.
func (h *CourseHandler) AssignDepartment(c *gin.Context) {
	var req service.AssignDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.courses.AssignToDepartment(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "assigned"}, nil)
}

// AddPrerequisite records a prerequisite edge for a course.
func (h *CourseHandler) AddPrerequisite(c *gin.Context) {
	var req service.AddPrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edge, err := h.prerequisites.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// ListPrerequisites returns prerequisite edges, optionally for one course.
func (h *CourseHandler) ListPrerequisites(c *gin.Context) {
	ctx := c.Request.Context()
	if courseID := c.Query("course"); courseID != "" {
		edges, err := h.prerequisites.ListByCourse(ctx, courseID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.List(c, edges, len(edges), nil)
		return
	}
	edges, err := h.prerequisites.ListAll(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, edges, len(edges), nil)
}

// DeletePrerequisite removes a prerequisite edge by id.
func (h *CourseHandler) DeletePrerequisite(c *gin.Context) {
	if err := h.prerequisites.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
