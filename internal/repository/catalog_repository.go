package repository

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polibaldeo/polibaldeo-api/internal/models"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/storage"
)

// Extension is the schedule document suffix.
const Extension = ".poli"

// CatalogRepository loads and saves schedule documents in the
// line-oriented .poli text format.
type CatalogRepository struct {
	store  *storage.LocalStorage
	logger *zap.Logger
}

// NewCatalogRepository constructs a repository over local storage.
func NewCatalogRepository(store *storage.LocalStorage, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{store: store, logger: logger}
}

// Load reads and decodes a .poli file. On any read failure the caller's
// in-memory catalog must remain untouched, so errors carry no partial data.
func (r *CatalogRepository) Load(path string) (models.Catalog, error) {
	data, err := r.store.Read(EnsureExtension(path, Extension))
	if err != nil {
		return models.Catalog{}, appErrors.Wrap(err, appErrors.ErrIOFailure.Code, appErrors.ErrIOFailure.Status, "could not read schedule file")
	}
	return r.Decode(string(data)), nil
}

// Save encodes the catalog and writes it atomically, so a failed save
// never leaves a half-written document behind.
func (r *CatalogRepository) Save(path string, catalog models.Catalog) error {
	if _, err := r.store.SaveAtomic(EnsureExtension(path, Extension), []byte(Encode(catalog))); err != nil {
		return appErrors.Wrap(err, appErrors.ErrIOFailure.Code, appErrors.ErrIOFailure.Status, "could not write schedule file")
	}
	return nil
}

// Decode parses .poli content. Records are separated by blank lines; a
// record's first line is "name|credits" and each following line is
// "section | blocks | selected | note". Broken section lines are skipped
// with a warning instead of failing the whole load.
func (r *CatalogRepository) Decode(content string) models.Catalog {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	catalog := models.Catalog{}

	for _, record := range strings.Split(content, "\n\n") {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}

		lines := strings.Split(record, "\n")
		course := models.Course{ID: uuid.NewString()}

		head := strings.Split(lines[0], "|")
		course.Name = strings.TrimSpace(head[0])
		if len(head) > 1 {
			if credits, err := strconv.Atoi(strings.TrimSpace(head[1])); err == nil {
				course.Credits = credits
			}
		}

		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			section, ok := r.decodeSection(course.Name, line)
			if ok {
				course.Sections = append(course.Sections, section)
			}
		}

		catalog.Courses = append(catalog.Courses, course)
	}

	return catalog
}

func (r *CatalogRepository) decodeSection(courseName, line string) (models.Section, bool) {
	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		r.logger.Warn("skipping malformed section line",
			zap.String("course", courseName),
			zap.String("line", line))
		return models.Section{}, false
	}

	section := models.Section{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(parts[0]),
		Selected: strings.TrimSpace(parts[2]) == "1",
	}
	// Note field appeared later; older files only carry three fields.
	if len(parts) >= 4 {
		section.Note = strings.ReplaceAll(strings.TrimSpace(parts[3]), `\n`, "\n")
	}

	for _, blockText := range strings.Split(parts[1], ";") {
		blockText = strings.TrimSpace(blockText)
		if blockText == "" {
			continue
		}
		block, err := models.ParseTimeBlock(blockText)
		if err != nil {
			r.logger.Warn("skipping section with malformed time block",
				zap.String("course", courseName),
				zap.String("section", section.Name),
				zap.String("block", blockText),
				zap.Error(err))
			return models.Section{}, false
		}
		section.Blocks = append(section.Blocks, block)
	}

	return section, true
}

// Encode renders the catalog into .poli text. Decode(Encode(c)) rebuilds
// the same courses, sections, blocks, flags and notes.
func Encode(catalog models.Catalog) string {
	var sb strings.Builder
	for _, course := range catalog.Courses {
		sb.WriteString(course.Name)
		sb.WriteString("|")
		sb.WriteString(strconv.Itoa(course.Credits))
		sb.WriteString("\n")

		for _, section := range course.Sections {
			blockTexts := make([]string, len(section.Blocks))
			for i, block := range section.Blocks {
				blockTexts[i] = block.String()
			}
			selected := "0"
			if section.Selected {
				selected = "1"
			}
			note := strings.ReplaceAll(section.Note, "\n", `\n`)
			sb.WriteString(section.Name)
			sb.WriteString(" | ")
			sb.WriteString(strings.Join(blockTexts, "; "))
			sb.WriteString(" | ")
			sb.WriteString(selected)
			sb.WriteString(" | ")
			sb.WriteString(note)
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}
	return sb.String()
}

// EnsureExtension appends the expected suffix when missing.
func EnsureExtension(path, extension string) string {
	if !strings.HasSuffix(path, extension) {
		return path + extension
	}
	return path
}
