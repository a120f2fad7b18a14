package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polibaldeo/polibaldeo-api/internal/models"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/storage"
)

func newTestRepository(t *testing.T) (*CatalogRepository, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewCatalogRepository(store, nil), dir
}

func mustBlock(t *testing.T, text string) models.TimeBlock {
	t.Helper()
	block, err := models.ParseTimeBlock(text)
	require.NoError(t, err)
	return block
}

func sampleCatalog(t *testing.T) models.Catalog {
	t.Helper()
	return models.Catalog{Courses: []models.Course{
		{
			ID:      "c1",
			Name:    "Cálculo Vectorial",
			Credits: 4,
			Sections: []models.Section{
				{
					ID:       "s1",
					Name:     "GR1",
					Blocks:   []models.TimeBlock{mustBlock(t, "Lunes 07:00-09:00"), mustBlock(t, "Miércoles 07:00-09:00")},
					Selected: true,
					Note:     "Aula E17\nProfesor pendiente",
				},
				{
					ID:     "s2",
					Name:   "GR2",
					Blocks: []models.TimeBlock{mustBlock(t, "Martes 11:00-13:00")},
				},
			},
		},
		{
			ID:      "c2",
			Name:    "Física General",
			Credits: 3,
			Sections: []models.Section{
				{
					ID:     "s3",
					Name:   "GR1",
					Blocks: []models.TimeBlock{mustBlock(t, "Viernes 14:30-16:00")},
				},
			},
		},
	}}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	original := sampleCatalog(t)

	decoded := repo.Decode(Encode(original))

	require.Len(t, decoded.Courses, 2)
	for i, course := range decoded.Courses {
		want := original.Courses[i]
		assert.Equal(t, want.Name, course.Name)
		assert.Equal(t, want.Credits, course.Credits)
		require.Len(t, course.Sections, len(want.Sections))
		for j, section := range course.Sections {
			wantSection := want.Sections[j]
			assert.Equal(t, wantSection.Name, section.Name)
			assert.Equal(t, wantSection.Selected, section.Selected)
			assert.Equal(t, wantSection.Note, section.Note)
			assert.Equal(t, wantSection.Blocks, section.Blocks)
		}
	}
}

func TestDecodeDefaultsMissingCreditsToZero(t *testing.T) {
	repo, _ := newTestRepository(t)

	catalog := repo.Decode("Programación\nGR1 | Lunes 07:00-09:00 | 0 | \n")

	require.Len(t, catalog.Courses, 1)
	assert.Equal(t, "Programación", catalog.Courses[0].Name)
	assert.Equal(t, 0, catalog.Courses[0].Credits)
	require.Len(t, catalog.Courses[0].Sections, 1)
}

func TestDecodeToleratesNonNumericCredits(t *testing.T) {
	repo, _ := newTestRepository(t)

	catalog := repo.Decode("Química|muchos\nGR1 | Lunes 07:00-09:00 | 1 | \n")

	require.Len(t, catalog.Courses, 1)
	assert.Equal(t, 0, catalog.Courses[0].Credits)
	assert.True(t, catalog.Courses[0].Sections[0].Selected)
}

func TestDecodeSkipsShortSectionLines(t *testing.T) {
	repo, _ := newTestRepository(t)

	content := "Química|2\n" +
		"GR1 | Lunes 07:00-09:00 | 1 | \n" +
		"linea rota sin campos\n" +
		"GR2 | Martes 07:00-09:00 | 0 | \n"
	catalog := repo.Decode(content)

	require.Len(t, catalog.Courses, 1)
	require.Len(t, catalog.Courses[0].Sections, 2)
	assert.Equal(t, "GR1", catalog.Courses[0].Sections[0].Name)
	assert.Equal(t, "GR2", catalog.Courses[0].Sections[1].Name)
}

func TestDecodeSkipsSectionsWithMalformedBlocks(t *testing.T) {
	repo, _ := newTestRepository(t)

	content := "Química|2\n" +
		"GR1 | Lunes 25:00-09:00 | 1 | \n" +
		"GR2 | Martes 07:00-09:00 | 0 | \n"
	catalog := repo.Decode(content)

	require.Len(t, catalog.Courses[0].Sections, 1)
	assert.Equal(t, "GR2", catalog.Courses[0].Sections[0].Name)
}

func TestDecodeAcceptsLegacyThreeFieldLines(t *testing.T) {
	repo, _ := newTestRepository(t)

	catalog := repo.Decode("Química|2\nGR1 | Lunes 07:00-09:00 | 1\n")

	require.Len(t, catalog.Courses[0].Sections, 1)
	assert.Empty(t, catalog.Courses[0].Sections[0].Note)
	assert.True(t, catalog.Courses[0].Sections[0].Selected)
}

func TestSaveThenLoad(t *testing.T) {
	repo, dir := newTestRepository(t)
	original := sampleCatalog(t)

	require.NoError(t, repo.Save("horario", original))

	_, err := os.Stat(filepath.Join(dir, "horario"+Extension))
	require.NoError(t, err)

	loaded, err := repo.Load("horario")
	require.NoError(t, err)
	require.Len(t, loaded.Courses, 2)
	assert.Equal(t, "Cálculo Vectorial", loaded.Courses[0].Name)
	assert.Equal(t, "Aula E17\nProfesor pendiente", loaded.Courses[0].Sections[0].Note)
}

func TestLoadMissingFileReturnsIOFailure(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.Load("no-existe")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIOFailure.Code, appErrors.FromError(err).Code)
}

func TestEnsureExtension(t *testing.T) {
	assert.Equal(t, "a.poli", EnsureExtension("a", Extension))
	assert.Equal(t, "a.poli", EnsureExtension("a.poli", Extension))
}
