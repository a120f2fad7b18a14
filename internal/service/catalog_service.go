package service

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/models"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
)

// CatalogChangeListener is notified after every catalog mutation, so
// dependents (search result caches) can drop stale state.
type CatalogChangeListener interface {
	CatalogChanged()
}

// CatalogServiceConfig carries the academic constants.
type CatalogServiceConfig struct {
	DefaultCredits int
	MaxCredits     int
	OpenHour       int
	CloseHour      int
}

// CatalogService is the single owner of the in-memory schedule document.
// All mutations go through it; readers take deep-copied snapshots so
// propagation and search never observe a document mid-mutation.
type CatalogService struct {
	mu       sync.RWMutex
	catalog  models.Catalog
	pathName string

	availability *AvailabilityService
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          CatalogServiceConfig

	listenerMu sync.Mutex
	listeners  []CatalogChangeListener
}

// NewCatalogService builds an empty document.
func NewCatalogService(availability *AvailabilityService, validate *validator.Validate, logger *zap.Logger, cfg CatalogServiceConfig) *CatalogService {
	if availability == nil {
		availability = NewAvailabilityService()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultCredits <= 0 {
		cfg.DefaultCredits = 3
	}
	if cfg.MaxCredits <= 0 {
		cfg.MaxCredits = 10
	}
	if cfg.CloseHour <= cfg.OpenHour {
		cfg.OpenHour, cfg.CloseHour = 7, 22
	}
	return &CatalogService{
		availability: availability,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// Subscribe registers a mutation listener.
func (s *CatalogService) Subscribe(listener CatalogChangeListener) {
	if listener == nil {
		return
	}
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *CatalogService) notifyChanged() {
	s.listenerMu.Lock()
	listeners := append([]CatalogChangeListener(nil), s.listeners...)
	s.listenerMu.Unlock()
	for _, l := range listeners {
		l.CatalogChanged()
	}
}

// Snapshot returns a deep copy safe for concurrent reads.
func (s *CatalogService) Snapshot() models.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Clone()
}

// Replace swaps the whole document (new/open). The unsaved-changes
// confirmation gate belongs to the UI caller, not here.
func (s *CatalogService) Replace(catalog models.Catalog, pathName string) {
	s.mu.Lock()
	s.catalog = catalog.Clone()
	s.pathName = pathName
	s.mu.Unlock()
	s.notifyChanged()
}

// PathName returns the file path the document was last loaded from or
// saved to; empty for an untitled document.
func (s *CatalogService) PathName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pathName
}

// SetPathName records the document's backing file.
func (s *CatalogService) SetPathName(path string) {
	s.mu.Lock()
	s.pathName = path
	s.mu.Unlock()
}

// View renders the document with per-section availability and credits.
func (s *CatalogService) View() dto.CatalogView {
	snapshot := s.Snapshot()
	availability := s.availability.Propagate(snapshot)

	view := dto.CatalogView{
		Courses:      make([]dto.CourseView, 0, len(snapshot.Courses)),
		TotalCredits: s.availability.SelectedCredits(snapshot),
	}
	for _, course := range snapshot.Courses {
		courseView := dto.CourseView{
			ID:       course.ID,
			Name:     course.Name,
			Credits:  course.Credits,
			Sections: make([]dto.SectionView, 0, len(course.Sections)),
		}
		for _, section := range course.Sections {
			verdict := availability[section.ID]
			courseView.Sections = append(courseView.Sections, dto.SectionView{
				ID:   section.ID,
				Name: section.Name,
				Blocks: lo.Map(section.Blocks, func(b models.TimeBlock, _ int) string {
					return b.String()
				}),
				Note:     section.Note,
				Selected: section.Selected,
				Enabled:  verdict.Enabled,
				Reason:   verdict.Reason,
			})
		}
		view.Courses = append(view.Courses, courseView)
	}
	return view
}

// Availability exposes the raw propagation result.
func (s *CatalogService) Availability() map[string]models.Availability {
	return s.availability.Propagate(s.Snapshot())
}

// SelectedCredits exposes the derived credit total.
func (s *CatalogService) SelectedCredits() int {
	return s.availability.SelectedCredits(s.Snapshot())
}

// AddCourse appends a course. Names are unique within the document.
func (s *CatalogService) AddCourse(req dto.CourseRequest) (*dto.CourseView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrEmptyField.Code, appErrors.ErrEmptyField.Status, "course name is required")
	}
	credits, err := s.resolveCredits(req.Credits)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.catalog.HasCourseNamed(req.Name, "") {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("course %q already exists", req.Name))
	}
	course := models.Course{ID: uuid.NewString(), Name: req.Name, Credits: credits}
	s.catalog.Courses = append(s.catalog.Courses, course)
	s.mu.Unlock()

	s.notifyChanged()
	return &dto.CourseView{ID: course.ID, Name: course.Name, Credits: course.Credits, Sections: []dto.SectionView{}}, nil
}

// UpdateCourse renames a course and/or changes its credits.
func (s *CatalogService) UpdateCourse(courseID string, req dto.CourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrEmptyField.Code, appErrors.ErrEmptyField.Status, "course name is required")
	}
	credits, err := s.resolveCredits(req.Credits)
	if err != nil {
		return err
	}

	s.mu.Lock()
	course := s.catalog.FindCourse(courseID)
	if course == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if s.catalog.HasCourseNamed(req.Name, courseID) {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("course %q already exists", req.Name))
	}
	course.Name = req.Name
	if req.Credits != nil {
		course.Credits = credits
	}
	s.mu.Unlock()

	s.notifyChanged()
	return nil
}

// DeleteCourse removes a course and its sections.
func (s *CatalogService) DeleteCourse(courseID string) error {
	s.mu.Lock()
	before := len(s.catalog.Courses)
	s.catalog.Courses = lo.Reject(s.catalog.Courses, func(c models.Course, _ int) bool {
		return c.ID == courseID
	})
	removed := len(s.catalog.Courses) != before
	s.mu.Unlock()

	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.notifyChanged()
	return nil
}

// MoveCourse repositions a course; position is clamped to the list.
func (s *CatalogService) MoveCourse(courseID string, position int) error {
	s.mu.Lock()
	moved, ok := moveByID(s.catalog.Courses, position, func(c models.Course) string { return c.ID }, courseID)
	if ok {
		s.catalog.Courses = moved
	}
	s.mu.Unlock()

	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.notifyChanged()
	return nil
}

// AddSection appends a section to a course. Block texts are parsed and
// validated before anything is mutated.
func (s *CatalogService) AddSection(courseID string, req dto.SectionRequest) (*dto.SectionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrEmptyField.Code, appErrors.ErrEmptyField.Status, "section name and at least one block are required")
	}
	blocks, err := parseBlocks(req.Blocks)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	course := s.catalog.FindCourse(courseID)
	if course == nil {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if course.HasSectionNamed(req.Name, "") {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("section %q already exists in %s", req.Name, course.Name))
	}
	section := models.Section{ID: uuid.NewString(), Name: req.Name, Blocks: blocks, Note: req.Note}
	course.Sections = append(course.Sections, section)
	s.mu.Unlock()

	s.notifyChanged()
	return &dto.SectionView{
		ID:      section.ID,
		Name:    section.Name,
		Blocks:  req.Blocks,
		Note:    section.Note,
		Enabled: true,
	}, nil
}

// UpdateSection edits a section in place, keeping its selection flag.
func (s *CatalogService) UpdateSection(courseID, sectionID string, req dto.SectionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrEmptyField.Code, appErrors.ErrEmptyField.Status, "section name and at least one block are required")
	}
	blocks, err := parseBlocks(req.Blocks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	course := s.catalog.FindCourse(courseID)
	if course == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	section := course.FindSection(sectionID)
	if section == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	if course.HasSectionNamed(req.Name, sectionID) {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("section %q already exists in %s", req.Name, course.Name))
	}
	section.Name = req.Name
	section.Blocks = blocks
	section.Note = req.Note
	s.mu.Unlock()

	s.notifyChanged()
	return nil
}

// DeleteSection removes a section from its course.
func (s *CatalogService) DeleteSection(courseID, sectionID string) error {
	s.mu.Lock()
	course := s.catalog.FindCourse(courseID)
	if course == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	before := len(course.Sections)
	course.Sections = lo.Reject(course.Sections, func(sec models.Section, _ int) bool {
		return sec.ID == sectionID
	})
	removed := len(course.Sections) != before
	s.mu.Unlock()

	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	s.notifyChanged()
	return nil
}

// MoveSection repositions a section within its course.
func (s *CatalogService) MoveSection(courseID, sectionID string, position int) error {
	s.mu.Lock()
	course := s.catalog.FindCourse(courseID)
	if course == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	moved, ok := moveByID(course.Sections, position, func(sec models.Section) string { return sec.ID }, sectionID)
	if ok {
		course.Sections = moved
	}
	s.mu.Unlock()

	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	s.notifyChanged()
	return nil
}

// SetSelected toggles a section flag. The flag is advisory: the
// propagator's verdict decides what a UI may still offer, but a direct
// caller is not hard-blocked here.
func (s *CatalogService) SetSelected(courseID, sectionID string, selected bool) error {
	s.mu.Lock()
	course := s.catalog.FindCourse(courseID)
	if course == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	section := course.FindSection(sectionID)
	if section == nil {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "section not found")
	}
	section.Selected = selected
	s.mu.Unlock()

	s.notifyChanged()
	return nil
}

// DeselectAll clears every selection flag.
func (s *CatalogService) DeselectAll() {
	s.mu.Lock()
	for i := range s.catalog.Courses {
		for j := range s.catalog.Courses[i].Sections {
			s.catalog.Courses[i].Sections[j].Selected = false
		}
	}
	s.mu.Unlock()
	s.notifyChanged()
}

// ApplyCombination deselects everything, then selects one section per
// pair. Unknown pairs fail the whole batch before any mutation.
func (s *CatalogService) ApplyCombination(req dto.ApplyCombinationRequest) (*dto.ApplyCombinationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid combination payload")
	}

	s.mu.Lock()
	for _, pair := range req.Pairs {
		course := s.catalog.FindCourse(pair.CourseID)
		if course == nil || course.FindSection(pair.SectionID) == nil {
			s.mu.Unlock()
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown course/section pair %s/%s", pair.CourseID, pair.SectionID))
		}
	}
	for i := range s.catalog.Courses {
		for j := range s.catalog.Courses[i].Sections {
			s.catalog.Courses[i].Sections[j].Selected = false
		}
	}
	for _, pair := range req.Pairs {
		section := s.catalog.FindCourse(pair.CourseID).FindSection(pair.SectionID)
		section.Selected = true
	}
	s.mu.Unlock()

	s.notifyChanged()
	return &dto.ApplyCombinationResponse{
		Applied:      len(req.Pairs),
		TotalCredits: s.SelectedCredits(),
	}, nil
}

// Grid renders the weekly timetable cells for the current selections.
func (s *CatalogService) Grid() dto.GridView {
	snapshot := s.Snapshot()
	view := dto.GridView{
		TimeLabels: models.GenerateTimeGrid(s.cfg.OpenHour, s.cfg.CloseHour),
		Days: lo.Map(models.Weekdays, func(d models.Weekday, _ int) string {
			return string(d)
		}),
		Cells: []dto.GridCell{},
	}

	for _, course := range snapshot.Courses {
		for _, section := range course.Sections {
			if !section.Selected {
				continue
			}
			for _, b := range section.Blocks {
				for _, slot := range models.EnumerateSlots(b.StartMinute, b.EndMinute) {
					view.Cells = append(view.Cells, dto.GridCell{
						Day:     string(b.Day),
						Time:    slot,
						Course:  course.Name,
						Section: section.Name,
					})
				}
			}
		}
	}
	return view
}

func (s *CatalogService) resolveCredits(credits *int) (int, error) {
	if credits == nil {
		return s.cfg.DefaultCredits, nil
	}
	if *credits < 0 || *credits > s.cfg.MaxCredits {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("credits must be between 0 and %d", s.cfg.MaxCredits))
	}
	return *credits, nil
}

func parseBlocks(texts []string) ([]models.TimeBlock, error) {
	blocks := make([]models.TimeBlock, 0, len(texts))
	for _, text := range texts {
		block, err := models.ParseTimeBlock(text)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyField, "at least one time block is required")
	}
	return blocks, nil
}

// moveByID returns a reordered copy with the identified element at the
// clamped target position.
func moveByID[T any](items []T, position int, idOf func(T) string, id string) ([]T, bool) {
	index := -1
	for i, item := range items {
		if idOf(item) == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, false
	}
	if position < 0 {
		position = 0
	}
	if position >= len(items) {
		position = len(items) - 1
	}

	out := make([]T, 0, len(items))
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	out = append(out[:position], append([]T{items[index]}, out[position:]...)...)
	return out, true
}
