package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polibaldeo/polibaldeo-api/internal/models"
)

func block(t *testing.T, text string) models.TimeBlock {
	t.Helper()
	b, err := models.ParseTimeBlock(text)
	require.NoError(t, err)
	return b
}

func TestPropagateSingleChoicePerCourse(t *testing.T) {
	catalog := models.Catalog{Courses: []models.Course{{
		ID:   "c1",
		Name: "Cálculo",
		Sections: []models.Section{
			{ID: "s1", Name: "GR1", Selected: true, Blocks: []models.TimeBlock{block(t, "Lunes 07:00-09:00")}},
			{ID: "s2", Name: "GR2", Blocks: []models.TimeBlock{block(t, "Martes 07:00-09:00")}},
			{ID: "s3", Name: "GR3", Blocks: []models.TimeBlock{block(t, "Jueves 07:00-09:00")}},
		},
	}}}

	availability := NewAvailabilityService().Propagate(catalog)

	assert.True(t, availability["s1"].Enabled)
	assert.False(t, availability["s2"].Enabled)
	assert.Equal(t, models.BlockedCourseExclusive, availability["s2"].Reason)
	assert.False(t, availability["s3"].Enabled)
	assert.Equal(t, models.BlockedCourseExclusive, availability["s3"].Reason)
}

func TestPropagateCrossCourseConflict(t *testing.T) {
	catalog := models.Catalog{Courses: []models.Course{
		{
			ID: "a",
			Sections: []models.Section{
				{ID: "a1", Selected: true, Blocks: []models.TimeBlock{block(t, "Martes 14:00-16:00")}},
			},
		},
		{
			ID: "b",
			Sections: []models.Section{
				{ID: "b1", Blocks: []models.TimeBlock{block(t, "Martes 15:00-15:30")}},
				{ID: "b2", Blocks: []models.TimeBlock{block(t, "Martes 16:00-17:00")}},
			},
		},
	}}

	availability := NewAvailabilityService().Propagate(catalog)

	assert.False(t, availability["b1"].Enabled)
	assert.Equal(t, models.BlockedTimeConflict, availability["b1"].Reason)
	assert.True(t, availability["b2"].Enabled)
}

func TestPropagateIsIdempotentAndOrderIndependent(t *testing.T) {
	catalog := models.Catalog{Courses: []models.Course{
		{
			ID: "a",
			Sections: []models.Section{
				{ID: "a1", Selected: true, Blocks: []models.TimeBlock{block(t, "Lunes 10:00-12:00")}},
			},
		},
		{
			ID: "b",
			Sections: []models.Section{
				{ID: "b1", Blocks: []models.TimeBlock{block(t, "Lunes 11:00-13:00")}},
			},
		},
	}}

	svc := NewAvailabilityService()
	first := svc.Propagate(catalog)
	second := svc.Propagate(catalog)
	assert.Equal(t, first, second)

	reversed := models.Catalog{Courses: []models.Course{catalog.Courses[1], catalog.Courses[0]}}
	assert.Equal(t, first, svc.Propagate(reversed))
}

func TestPropagateCourseWithoutSectionsParticipatesInNothing(t *testing.T) {
	catalog := models.Catalog{Courses: []models.Course{
		{ID: "empty"},
		{
			ID: "b",
			Sections: []models.Section{
				{ID: "b1", Blocks: []models.TimeBlock{block(t, "Lunes 11:00-13:00")}},
			},
		},
	}}

	availability := NewAvailabilityService().Propagate(catalog)
	require.Len(t, availability, 1)
	assert.True(t, availability["b1"].Enabled)
}

func TestSelectedCreditsCountsCourseOnce(t *testing.T) {
	catalog := models.Catalog{Courses: []models.Course{
		{
			ID:      "a",
			Credits: 4,
			Sections: []models.Section{
				{ID: "a1", Selected: true},
				{ID: "a2", Selected: true},
			},
		},
		{
			ID:      "b",
			Credits: 3,
			Sections: []models.Section{
				{ID: "b1"},
			},
		},
		{
			ID:      "c",
			Credits: 5,
			Sections: []models.Section{
				{ID: "c1", Selected: true},
			},
		},
	}}

	assert.Equal(t, 9, NewAvailabilityService().SelectedCredits(catalog))
}

func TestOccupancyLastWriterWins(t *testing.T) {
	catalog := models.Catalog{Courses: []models.Course{
		{
			ID: "a",
			Sections: []models.Section{
				{ID: "a1", Selected: true, Blocks: []models.TimeBlock{block(t, "Lunes 10:00-11:00")}},
			},
		},
	}}

	occ := BuildOccupancy(catalog)
	require.Len(t, occ, 2)
	assert.Equal(t, "a", occ[SlotKey{Day: models.Monday, Minute: 10 * 60}])
	assert.Equal(t, "a", occ[SlotKey{Day: models.Monday, Minute: 10*60 + 30}])
}

func TestAnyOverlap(t *testing.T) {
	a := []models.TimeBlock{block(t, "Lunes 09:00-10:30"), block(t, "Jueves 09:00-10:00")}
	b := []models.TimeBlock{block(t, "Lunes 10:00-11:00")}
	c := []models.TimeBlock{block(t, "Lunes 10:30-11:00")}

	assert.True(t, AnyOverlap(a, b))
	assert.False(t, AnyOverlap(a, c))
	assert.False(t, AnyOverlap(nil, b))
}
