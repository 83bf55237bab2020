package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type mockStaffRepo struct {
	staff     map[string]*models.Staff
	created   *models.Staff
	lastLogin *time.Time
}

func (m *mockStaffRepo) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	for _, s := range m.staff {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) Create(ctx context.Context, staff *models.Staff) error {
	staff.ID = "staff-1"
	m.created = staff
	return nil
}

func (m *mockStaffRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = &ts
	return nil
}

func newAuthFixture(t *testing.T) (*mockStaffRepo, *AuthService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockStaffRepo{staff: map[string]*models.Staff{
		"staff-1": {
			ID:           "staff-1",
			Email:        "control@faculty.edu",
			PasswordHash: string(hash),
			FullName:     "Control Officer",
			Role:         models.RoleControl,
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "faculty-api"})
	return repo, svc
}

func TestLoginSuccess(t *testing.T) {
	repo, svc := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "control@faculty.edu", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleControl, resp.Staff.Role)
	assert.NotNil(t, repo.lastLogin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.StaffID)
	assert.Equal(t, models.RoleControl, claims.Role)
	assert.Equal(t, "faculty-api", claims.Issuer)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "control@faculty.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@faculty.edu", Password: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo, svc := newAuthFixture(t)
	repo.staff["staff-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "control@faculty.edu", Password: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRegisterStaff(t *testing.T) {
	repo, svc := newAuthFixture(t)

	staff, err := svc.Register(context.Background(), RegisterStaffRequest{
		Email:    "affairs@faculty.edu",
		Password: "longenough",
		FullName: "Affairs Officer",
		Role:     models.RoleStudentAffairs,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff-1", staff.ID)
	assert.True(t, staff.Active)
	require.NotNil(t, repo.created)
	assert.NotEqual(t, "longenough", repo.created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("longenough")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterStaffRequest{
		Email:    "control@faculty.edu",
		Password: "longenough",
		FullName: "Impostor",
		Role:     models.RoleControl,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsBadPayload(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterStaffRequest{Email: "bad", Password: "short", FullName: "X", Role: "CONTROL"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Register(context.Background(), RegisterStaffRequest{Email: "ok@faculty.edu", Password: "longenough", FullName: "Valid Name", Role: "JANITOR"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	_, svc := newAuthFixture(t)
	other := NewAuthService(&mockStaffRepo{}, nil, nil, AuthConfig{Secret: "other-secret", Expiry: time.Hour, Issuer: "faculty-api"})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "control@faculty.edu", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
