package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
)

func newTestCatalogService() *CatalogService {
	return NewCatalogService(nil, nil, nil, CatalogServiceConfig{})
}

func intPtr(v int) *int { return &v }

func TestAddCourseAssignsDefaultsAndID(t *testing.T) {
	svc := newTestCatalogService()

	course, err := svc.AddCourse(dto.CourseRequest{Name: "Cálculo"})
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.Equal(t, 3, course.Credits)
}

func TestAddCourseRejectsDuplicateName(t *testing.T) {
	svc := newTestCatalogService()

	_, err := svc.AddCourse(dto.CourseRequest{Name: "Física"})
	require.NoError(t, err)

	_, err = svc.AddCourse(dto.CourseRequest{Name: "Física"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateName.Code, appErrors.FromError(err).Code)

	// prior state unchanged
	assert.Len(t, svc.Snapshot().Courses, 1)
}

func TestAddCourseRejectsEmptyName(t *testing.T) {
	svc := newTestCatalogService()

	_, err := svc.AddCourse(dto.CourseRequest{Name: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptyField.Code, appErrors.FromError(err).Code)
}

func TestAddCourseRejectsCreditsAboveMax(t *testing.T) {
	svc := newTestCatalogService()

	_, err := svc.AddCourse(dto.CourseRequest{Name: "Química", Credits: intPtr(11)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateCourseRenameToExistingNameFails(t *testing.T) {
	svc := newTestCatalogService()
	a, _ := svc.AddCourse(dto.CourseRequest{Name: "A"})
	_, _ = svc.AddCourse(dto.CourseRequest{Name: "B"})

	err := svc.UpdateCourse(a.ID, dto.CourseRequest{Name: "B"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateName.Code, appErrors.FromError(err).Code)

	// rename-to-self stays legal
	require.NoError(t, svc.UpdateCourse(a.ID, dto.CourseRequest{Name: "A", Credits: intPtr(5)}))
	assert.Equal(t, 5, svc.Snapshot().Courses[0].Credits)
}

func TestAddSectionParsesBlocks(t *testing.T) {
	svc := newTestCatalogService()
	course, _ := svc.AddCourse(dto.CourseRequest{Name: "Cálculo"})

	section, err := svc.AddSection(course.ID, dto.SectionRequest{
		Name:   "GR1",
		Blocks: []string{"Lunes 07:00-09:00", "Miércoles 07:00-09:00"},
		Note:   "Aula E17",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, section.ID)

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Courses[0].Sections, 1)
	assert.Len(t, snapshot.Courses[0].Sections[0].Blocks, 2)
}

func TestAddSectionRejectsMalformedBlock(t *testing.T) {
	svc := newTestCatalogService()
	course, _ := svc.AddCourse(dto.CourseRequest{Name: "Cálculo"})

	_, err := svc.AddSection(course.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 09:00"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedBlock.Code, appErrors.FromError(err).Code)
	assert.Empty(t, svc.Snapshot().Courses[0].Sections)
}

func TestAddSectionRejectsDuplicateNameWithinCourse(t *testing.T) {
	svc := newTestCatalogService()
	course, _ := svc.AddCourse(dto.CourseRequest{Name: "Cálculo"})

	_, err := svc.AddSection(course.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 07:00-09:00"}})
	require.NoError(t, err)
	_, err = svc.AddSection(course.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Martes 07:00-09:00"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateName.Code, appErrors.FromError(err).Code)
}

func TestMoveCourseClampsPosition(t *testing.T) {
	svc := newTestCatalogService()
	a, _ := svc.AddCourse(dto.CourseRequest{Name: "A"})
	_, _ = svc.AddCourse(dto.CourseRequest{Name: "B"})
	_, _ = svc.AddCourse(dto.CourseRequest{Name: "C"})

	require.NoError(t, svc.MoveCourse(a.ID, 99))
	names := []string{}
	for _, c := range svc.Snapshot().Courses {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"B", "C", "A"}, names)

	require.NoError(t, svc.MoveCourse(a.ID, 0))
	assert.Equal(t, "A", svc.Snapshot().Courses[0].Name)
}

func TestSelectionDrivesViewAndCredits(t *testing.T) {
	svc := newTestCatalogService()
	course, _ := svc.AddCourse(dto.CourseRequest{Name: "Cálculo", Credits: intPtr(4)})
	s1, _ := svc.AddSection(course.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 07:00-09:00"}})
	s2, _ := svc.AddSection(course.ID, dto.SectionRequest{Name: "GR2", Blocks: []string{"Martes 07:00-09:00"}})

	require.NoError(t, svc.SetSelected(course.ID, s1.ID, true))

	view := svc.View()
	assert.Equal(t, 4, view.TotalCredits)
	require.Len(t, view.Courses, 1)
	assert.True(t, view.Courses[0].Sections[0].Selected)
	assert.True(t, view.Courses[0].Sections[0].Enabled)
	assert.False(t, view.Courses[0].Sections[1].Enabled)

	svc.DeselectAll()
	view = svc.View()
	assert.Equal(t, 0, view.TotalCredits)
	assert.True(t, view.Courses[0].Sections[1].Enabled)
	_ = s2
}

func TestApplyCombinationBatchSelects(t *testing.T) {
	svc := newTestCatalogService()
	a, _ := svc.AddCourse(dto.CourseRequest{Name: "A", Credits: intPtr(4)})
	a1, _ := svc.AddSection(a.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 07:00-09:00"}})
	a2, _ := svc.AddSection(a.ID, dto.SectionRequest{Name: "GR2", Blocks: []string{"Martes 07:00-09:00"}})
	b, _ := svc.AddCourse(dto.CourseRequest{Name: "B", Credits: intPtr(3)})
	b1, _ := svc.AddSection(b.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Jueves 07:00-09:00"}})

	require.NoError(t, svc.SetSelected(a.ID, a2.ID, true))

	resp, err := svc.ApplyCombination(dto.ApplyCombinationRequest{Pairs: []dto.CombinationPair{
		{CourseID: a.ID, SectionID: a1.ID},
		{CourseID: b.ID, SectionID: b1.ID},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Applied)
	assert.Equal(t, 7, resp.TotalCredits)

	snapshot := svc.Snapshot()
	assert.True(t, snapshot.Courses[0].Sections[0].Selected)
	assert.False(t, snapshot.Courses[0].Sections[1].Selected)
}

func TestApplyCombinationUnknownPairLeavesStateUntouched(t *testing.T) {
	svc := newTestCatalogService()
	a, _ := svc.AddCourse(dto.CourseRequest{Name: "A"})
	a1, _ := svc.AddSection(a.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 07:00-09:00"}})
	require.NoError(t, svc.SetSelected(a.ID, a1.ID, true))

	_, err := svc.ApplyCombination(dto.ApplyCombinationRequest{Pairs: []dto.CombinationPair{
		{CourseID: a.ID, SectionID: "missing"},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.True(t, svc.Snapshot().Courses[0].Sections[0].Selected)
}

func TestGridListsOccupiedCells(t *testing.T) {
	svc := newTestCatalogService()
	course, _ := svc.AddCourse(dto.CourseRequest{Name: "Cálculo"})
	section, _ := svc.AddSection(course.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 07:00-08:30"}})
	require.NoError(t, svc.SetSelected(course.ID, section.ID, true))

	grid := svc.Grid()
	assert.Len(t, grid.TimeLabels, 30)
	assert.Equal(t, []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}, grid.Days)
	require.Len(t, grid.Cells, 3)
	assert.Equal(t, "07:00", grid.Cells[0].Time)
	assert.Equal(t, "08:00", grid.Cells[2].Time)
}

type changeCounter struct{ count int }

func (c *changeCounter) CatalogChanged() { c.count++ }

func TestListenersNotifiedOnMutations(t *testing.T) {
	svc := newTestCatalogService()
	counter := &changeCounter{}
	svc.Subscribe(counter)

	course, _ := svc.AddCourse(dto.CourseRequest{Name: "A"})
	_, _ = svc.AddSection(course.ID, dto.SectionRequest{Name: "GR1", Blocks: []string{"Lunes 07:00-09:00"}})
	svc.DeselectAll()

	assert.Equal(t, 3, counter.count)
}
