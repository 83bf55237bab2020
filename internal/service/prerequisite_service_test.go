package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fci-zu/faculty-api/internal/models"
	appErrors "github.com/fci-zu/faculty-api/pkg/errors"
)

type mockPrerequisiteRepo struct {
	edges   map[string]bool
	created *models.PrerequisiteEdge
}

func edgeKey(courseID, prerequisiteID string) string { return courseID + "->" + prerequisiteID }

func (m *mockPrerequisiteRepo) Exists(ctx context.Context, courseID, prerequisiteID string) (bool, error) {
	return m.edges[edgeKey(courseID, prerequisiteID)], nil
}

func (m *mockPrerequisiteRepo) Create(ctx context.Context, edge *models.PrerequisiteEdge) error {
	edge.ID = "edge-1"
	m.created = edge
	if m.edges == nil {
		m.edges = make(map[string]bool)
	}
	m.edges[edgeKey(edge.CourseID, edge.PrerequisiteID)] = true
	return nil
}

func (m *mockPrerequisiteRepo) ListAll(ctx context.Context) ([]models.PrerequisiteEdgeDetail, error) {
	return nil, nil
}

func (m *mockPrerequisiteRepo) ListByCourse(ctx context.Context, courseID string) ([]models.PrerequisiteEdgeDetail, error) {
	return nil, nil
}

func (m *mockPrerequisiteRepo) Delete(ctx context.Context, id string) error {
	return nil
}

// mockGraphReader serves both course lookups and graph walks from a static
// adjacency list.
type mockGraphReader struct {
	graph map[string][]string
}

func (m *mockGraphReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if _, ok := m.graph[id]; ok {
		return &models.Course{ID: id, CreditHours: 3}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGraphReader) ListPrerequisiteIDs(ctx context.Context, courseID string) ([]string, error) {
	return m.graph[courseID], nil
}

func newPrerequisiteFixture(graph map[string][]string) (*mockPrerequisiteRepo, *PrerequisiteService) {
	repo := &mockPrerequisiteRepo{edges: map[string]bool{}}
	svc := NewPrerequisiteService(repo, &mockGraphReader{graph: graph}, validator.New(), zap.NewNop())
	return repo, svc
}

func TestAddPrerequisite(t *testing.T) {
	repo, svc := newPrerequisiteFixture(map[string][]string{"intro": nil, "ds": nil})

	edge, err := svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "ds", PrerequisiteID: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "ds", edge.CourseID)
	assert.Equal(t, "intro", edge.PrerequisiteID)
	assert.NotNil(t, repo.created)
}

func TestAddPrerequisiteSelfEdgeRejected(t *testing.T) {
	_, svc := newPrerequisiteFixture(map[string][]string{"intro": nil})

	_, err := svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "intro", PrerequisiteID: "intro"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddPrerequisiteDuplicateRejected(t *testing.T) {
	repo, svc := newPrerequisiteFixture(map[string][]string{"intro": nil, "ds": {"intro"}})
	repo.edges[edgeKey("ds", "intro")] = true

	_, err := svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "ds", PrerequisiteID: "intro"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddPrerequisiteDirectCycleRejected(t *testing.T) {
	// ds already requires intro; intro requiring ds closes the loop.
	_, svc := newPrerequisiteFixture(map[string][]string{"intro": nil, "ds": {"intro"}})

	_, err := svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "intro", PrerequisiteID: "ds"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "cycle")
}

func TestAddPrerequisiteTransitiveCycleRejected(t *testing.T) {
	// algorithms -> ds -> intro; intro requiring algorithms closes a 3-cycle.
	graph := map[string][]string{
		"intro":      nil,
		"ds":         {"intro"},
		"algorithms": {"ds"},
	}
	_, svc := newPrerequisiteFixture(graph)

	_, err := svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "intro", PrerequisiteID: "algorithms"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAddPrerequisiteUnknownCourses(t *testing.T) {
	_, svc := newPrerequisiteFixture(map[string][]string{"intro": nil})

	_, err := svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "ghost", PrerequisiteID: "intro"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Add(context.Background(), AddPrerequisiteRequest{CourseID: "intro", PrerequisiteID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
