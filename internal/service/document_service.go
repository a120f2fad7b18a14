package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/models"
	"github.com/polibaldeo/polibaldeo-api/internal/repository"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/export"
	"github.com/polibaldeo/polibaldeo-api/pkg/storage"
)

// DocumentServiceConfig tunes export defaults.
type DocumentServiceConfig struct {
	SemesterWeeks int
}

// DocumentService handles document lifecycle (new, load, save) and the
// calendar/grid exports derived from the current selection.
type DocumentService struct {
	catalog *CatalogService
	repo    *repository.CatalogRepository
	exports *storage.LocalStorage
	ics     *export.ICSExporter
	pdf     *export.PDFExporter
	csv     *export.CSVExporter
	metrics *MetricsService
	logger  *zap.Logger
	cfg     DocumentServiceConfig

	now func() time.Time
}

// NewDocumentService wires the document lifecycle dependencies.
func NewDocumentService(catalog *CatalogService, repo *repository.CatalogRepository, exports *storage.LocalStorage, metrics *MetricsService, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SemesterWeeks <= 0 {
		cfg.SemesterWeeks = 16
	}
	return &DocumentService{
		catalog: catalog,
		repo:    repo,
		exports: exports,
		ics:     export.NewICSExporter(),
		pdf:     export.NewPDFExporter(),
		csv:     export.NewCSVExporter(),
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// New discards the current document and starts an empty one.
func (s *DocumentService) New() {
	s.catalog.Replace(models.Catalog{}, "")
	s.logger.Info("new schedule document started")
}

// Load replaces the document with the file's contents. On failure the
// in-memory document is left untouched.
func (s *DocumentService) Load(path string) (*dto.CatalogView, error) {
	catalog, err := s.repo.Load(path)
	if err != nil {
		return nil, err
	}
	s.catalog.Replace(catalog, path)
	s.logger.Info("schedule document loaded",
		zap.String("path", path),
		zap.Int("courses", len(catalog.Courses)))
	view := s.catalog.View()
	return &view, nil
}

// Save writes the document to the given path, or to the path it was
// loaded from when none is given.
func (s *DocumentService) Save(path string) (string, error) {
	if path == "" {
		path = s.catalog.PathName()
	}
	if path == "" {
		return "", appErrors.Clone(appErrors.ErrEmptyField, "no target path for save")
	}
	path = repository.EnsureExtension(path, repository.Extension)
	if err := s.repo.Save(path, s.catalog.Snapshot()); err != nil {
		return "", err
	}
	s.catalog.SetPathName(path)
	s.logger.Info("schedule document saved", zap.String("path", path))
	return path, nil
}

// BuildEvents expands the selected sections into concrete calendar
// events for the coming weeks, anchored on the next Monday. A Monday
// after noon already anchors on the following week.
func (s *DocumentService) BuildEvents(weeks int) []models.CalendarEvent {
	if weeks <= 0 {
		weeks = s.cfg.SemesterWeeks
	}
	anchor := nextMonday(s.now())
	catalog := s.catalog.Snapshot()

	var events []models.CalendarEvent
	for _, course := range catalog.Courses {
		for _, section := range course.Sections {
			if !section.Selected {
				continue
			}
			for _, block := range section.Blocks {
				day := anchor.AddDate(0, 0, block.Day.Ordinal())
				for week := 0; week < weeks; week++ {
					base := day.AddDate(0, 0, 7*week)
					events = append(events, models.CalendarEvent{
						Title:       fmt.Sprintf("%s (%s)", course.Name, section.Name),
						Description: fmt.Sprintf("Paralelo: %s", section.Name),
						Start:       base.Add(time.Duration(block.StartMinute) * time.Minute),
						End:         base.Add(time.Duration(block.EndMinute) * time.Minute),
					})
				}
			}
		}
	}
	return events
}

// ExportICS writes an iCalendar file covering the selected sections.
func (s *DocumentService) ExportICS(req dto.ExportRequest) (*dto.ExportResponse, error) {
	events := s.BuildEvents(req.Weeks)
	if len(events) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyCatalog, "no selected sections to export")
	}

	items := make([]export.Event, 0, len(events))
	for _, ev := range events {
		items = append(items, export.Event{
			Title:       ev.Title,
			Description: ev.Description,
			Start:       export.FormatICSTime(ev.Start),
			End:         export.FormatICSTime(ev.End),
		})
	}
	data, err := s.ics.Render(items)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}

	filename := repository.EnsureExtension(req.Filename, ".ics")
	if _, err := s.exports.SaveAtomic(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIOFailure.Code, appErrors.ErrIOFailure.Status, "failed to write calendar file")
	}
	if s.metrics != nil {
		s.metrics.RecordExport("ics")
	}
	s.logger.Info("calendar exported", zap.String("filename", filename), zap.Int("events", len(events)))
	return &dto.ExportResponse{Filename: filename, Events: len(events)}, nil
}

// ExportPDF writes the weekly grid as a printable PDF.
func (s *DocumentService) ExportPDF(req dto.ExportRequest) (*dto.ExportResponse, error) {
	grid := s.buildGrid()
	data, err := s.pdf.Render(grid, s.documentTitle())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}

	filename := repository.EnsureExtension(req.Filename, ".pdf")
	if _, err := s.exports.SaveAtomic(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIOFailure.Code, appErrors.ErrIOFailure.Status, "failed to write pdf file")
	}
	if s.metrics != nil {
		s.metrics.RecordExport("pdf")
	}
	s.logger.Info("grid exported", zap.String("filename", filename), zap.String("format", "pdf"))
	return &dto.ExportResponse{Filename: filename}, nil
}

// ExportCSV writes the weekly grid as a spreadsheet-friendly table,
// one row per half-hour slot.
func (s *DocumentService) ExportCSV(req dto.ExportRequest) (*dto.ExportResponse, error) {
	grid := s.buildGrid()

	dataset := export.Dataset{Headers: append([]string{"Hora"}, grid.Days...)}
	for _, label := range grid.TimeLabels {
		row := make([]string, 0, len(grid.Days)+1)
		row = append(row, label)
		for _, day := range grid.Days {
			row = append(row, grid.Cells[export.GridKey(day, label)])
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}

	filename := repository.EnsureExtension(req.Filename, ".csv")
	if _, err := s.exports.SaveAtomic(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIOFailure.Code, appErrors.ErrIOFailure.Status, "failed to write csv file")
	}
	if s.metrics != nil {
		s.metrics.RecordExport("csv")
	}
	s.logger.Info("grid exported", zap.String("filename", filename), zap.String("format", "csv"))
	return &dto.ExportResponse{Filename: filename}, nil
}

func (s *DocumentService) buildGrid() export.Grid {
	view := s.catalog.Grid()
	grid := export.Grid{
		TimeLabels: view.TimeLabels,
		Days:       view.Days,
		Cells:      make(map[string]string, len(view.Cells)),
	}
	for _, cell := range view.Cells {
		grid.Cells[export.GridKey(cell.Day, cell.Time)] = fmt.Sprintf("%s (%s)", cell.Course, cell.Section)
	}
	return grid
}

func (s *DocumentService) documentTitle() string {
	path := s.catalog.PathName()
	if path == "" {
		return "Horario semanal"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// nextMonday finds the anchor Monday for calendar expansion. Sunday
// through early Monday map onto the coming Monday; from Monday noon
// onward the anchor rolls a full week forward.
func nextMonday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if offset == 0 && now.Hour() >= 12 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
