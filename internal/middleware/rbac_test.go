package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fci-zu/faculty-api/internal/models"
)

func performWithRole(role *models.StaffRole, required ...models.StaffRole) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if role != nil {
		c.Set(ContextStaffKey, &models.JWTClaims{StaffID: "staff-1", Role: *role})
	}
	RequireRoles(required...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRequireRolesAllows(t *testing.T) {
	role := models.RoleControl
	w := performWithRole(&role, models.RoleStudentAffairs, models.RoleControl)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesForbidden(t *testing.T) {
	role := models.RoleActivityStaff
	w := performWithRole(&role, models.RoleStudentAffairs, models.RoleControl)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesMissingClaims(t *testing.T) {
	w := performWithRole(nil, models.RoleControl)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
