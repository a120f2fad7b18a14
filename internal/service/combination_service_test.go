package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/models"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/jobs"
)

// inlineQueue runs jobs synchronously so tests observe final state
// right after Start returns.
type inlineQueue struct{ svc *CombinationService }

func (q *inlineQueue) Enqueue(job jobs.Job) error {
	return q.svc.HandleSearchJob(context.Background(), job)
}

// holdQueue stashes jobs so a test can cancel before running them.
type holdQueue struct{ jobs []jobs.Job }

func (q *holdQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func newSearchFixture(t *testing.T) (*CatalogService, *CombinationService) {
	t.Helper()
	catalog := newTestCatalogService()
	search := NewCombinationService(catalog, nil, nil, nil, CombinationServiceConfig{})
	search.AttachQueue(&inlineQueue{svc: search})
	return catalog, search
}

func addCourseWithSections(t *testing.T, svc *CatalogService, name string, sections map[string][]string) {
	t.Helper()
	course, err := svc.AddCourse(dto.CourseRequest{Name: name})
	require.NoError(t, err)
	// deterministic order matters; callers pass ordered section names
	for _, secName := range sortedKeys(sections) {
		_, err := svc.AddSection(course.ID, dto.SectionRequest{Name: secName, Blocks: sections[secName]})
		require.NoError(t, err)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func TestSearchFindsAllNonConflictingCombinations(t *testing.T) {
	catalog, search := newSearchFixture(t)
	addCourseWithSections(t, catalog, "Cálculo", map[string][]string{
		"GR1": {"Lunes 07:00-09:00"},
		"GR2": {"Martes 07:00-09:00"},
	})
	addCourseWithSections(t, catalog, "Física", map[string][]string{
		"GR1": {"Miércoles 07:00-09:00"},
		"GR2": {"Jueves 07:00-09:00"},
	})

	resp, err := search.Start(context.Background())
	require.NoError(t, err)

	status, err := search.Status(resp.SearchID)
	require.NoError(t, err)
	assert.Equal(t, models.SearchCompleted, status.State)
	assert.Equal(t, 100, status.Progress)
	require.Len(t, status.Combinations, 4)

	// depth-first pre-order: first course's first section leads
	first := status.Combinations[0]
	require.Len(t, first, 2)
	assert.Equal(t, "Cálculo", first[0].CourseName)
	assert.Equal(t, "GR1", first[0].SectionName)
	assert.Equal(t, "GR1", first[1].SectionName)
	assert.Equal(t, "GR2", status.Combinations[1][1].SectionName)
	assert.Equal(t, "GR2", status.Combinations[2][0].SectionName)
}

func TestSearchPrunesConflictingBranches(t *testing.T) {
	catalog, search := newSearchFixture(t)
	addCourseWithSections(t, catalog, "Cálculo", map[string][]string{
		"GR1": {"Lunes 07:00-09:00"},
		"GR2": {"Lunes 10:00-12:00"},
	})
	// GR1 only clears Cálculo GR2; GR2 clears both
	addCourseWithSections(t, catalog, "Física", map[string][]string{
		"GR1": {"Lunes 08:00-10:00"},
		"GR2": {"Martes 08:00-10:00"},
	})

	resp, err := search.Start(context.Background())
	require.NoError(t, err)

	status, err := search.Status(resp.SearchID)
	require.NoError(t, err)
	require.Len(t, status.Combinations, 3)
	for _, combo := range status.Combinations {
		require.Len(t, combo, 2)
	}
}

func TestSearchWithNoSolutionsCompletesEmpty(t *testing.T) {
	catalog, search := newSearchFixture(t)
	addCourseWithSections(t, catalog, "Cálculo", map[string][]string{
		"GR1": {"Lunes 07:00-09:00"},
	})
	addCourseWithSections(t, catalog, "Física", map[string][]string{
		"GR1": {"Lunes 08:00-10:00"},
	})

	resp, err := search.Start(context.Background())
	require.NoError(t, err)

	status, err := search.Status(resp.SearchID)
	require.NoError(t, err)
	assert.Equal(t, models.SearchCompleted, status.State)
	assert.Empty(t, status.Combinations)
	assert.Equal(t, 0, status.Total)
}

func TestSearchIgnoresCoursesWithoutSections(t *testing.T) {
	catalog, search := newSearchFixture(t)
	addCourseWithSections(t, catalog, "Cálculo", map[string][]string{
		"GR1": {"Lunes 07:00-09:00"},
	})
	_, err := catalog.AddCourse(dto.CourseRequest{Name: "Sin paralelos"})
	require.NoError(t, err)

	resp, err := search.Start(context.Background())
	require.NoError(t, err)

	status, err := search.Status(resp.SearchID)
	require.NoError(t, err)
	require.Len(t, status.Combinations, 1)
	assert.Len(t, status.Combinations[0], 1)
}

func TestSearchEmptyCatalogRejected(t *testing.T) {
	_, search := newSearchFixture(t)

	_, err := search.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyCatalog.Code, appErrors.FromError(err).Code)
}

func TestCancelledSearchReportsCancelledState(t *testing.T) {
	catalog := newTestCatalogService()
	search := NewCombinationService(catalog, nil, nil, nil, CombinationServiceConfig{})
	queue := &holdQueue{}
	search.AttachQueue(queue)

	addCourseWithSections(t, catalog, "Cálculo", map[string][]string{
		"GR1": {"Lunes 07:00-09:00"},
		"GR2": {"Martes 07:00-09:00"},
	})

	resp, err := search.Start(context.Background())
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)

	require.NoError(t, search.Cancel(resp.SearchID))
	require.NoError(t, search.HandleSearchJob(context.Background(), queue.jobs[0]))

	status, err := search.Status(resp.SearchID)
	require.NoError(t, err)
	assert.Equal(t, models.SearchCancelled, status.State)
	assert.Empty(t, status.Combinations)

	// cancelling a finished search is a conflict, not a crash
	err = search.Cancel(resp.SearchID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStatusUnknownSearchNotFound(t *testing.T) {
	_, search := newSearchFixture(t)

	_, err := search.Status("nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFingerprintTracksScheduleShape(t *testing.T) {
	a := []models.Course{{Name: "Cálculo", Sections: []models.Section{{Name: "GR1"}}}}
	b := []models.Course{{Name: "Cálculo", Sections: []models.Section{{Name: "GR2"}}}}

	assert.NotEqual(t, fingerprint(a), fingerprint(b))
	assert.Equal(t, fingerprint(a), fingerprint(a))

	// selection flags are invisible to the search
	c := []models.Course{{Name: "Cálculo", Sections: []models.Section{{Name: "GR1", Selected: true}}}}
	assert.Equal(t, fingerprint(a), fingerprint(c))
}
