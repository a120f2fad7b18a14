package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/polibaldeo/polibaldeo-api/internal/dto"
	"github.com/polibaldeo/polibaldeo-api/internal/models"
	appErrors "github.com/polibaldeo/polibaldeo-api/pkg/errors"
	"github.com/polibaldeo/polibaldeo-api/pkg/jobs"
)

// searchCache abstracts the Redis memoisation layer; nil-safe.
type searchCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type searchQueue interface {
	Enqueue(job jobs.Job) error
}

const searchCachePrefix = "combinations:"

// CombinationServiceConfig tunes result retention.
type CombinationServiceConfig struct {
	ResultTTL time.Duration
	CacheTTL  time.Duration
}

// CombinationService runs exhaustive backtracking searches for
// conflict-free schedules in the background. Searches work on an
// immutable snapshot taken at start; the live document can keep moving.
type CombinationService struct {
	catalog *CatalogService
	cache   searchCache
	queue   searchQueue
	metrics *MetricsService
	logger  *zap.Logger
	cfg     CombinationServiceConfig

	store *searchStore
}

// NewCombinationService wires the search dependencies. The queue is
// attached separately because its handler is this service.
func NewCombinationService(catalog *CatalogService, cache searchCache, metrics *MetricsService, logger *zap.Logger, cfg CombinationServiceConfig) *CombinationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	svc := &CombinationService{
		catalog: catalog,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		store:   newSearchStore(cfg.ResultTTL),
	}
	if catalog != nil {
		catalog.Subscribe(svc)
	}
	return svc
}

// AttachQueue provides the background worker queue.
func (s *CombinationService) AttachQueue(queue searchQueue) {
	s.queue = queue
}

// CatalogChanged drops memoised results; they are keyed by a catalog
// fingerprint, so this is housekeeping rather than correctness.
func (s *CombinationService) CatalogChanged() {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.DeleteByPattern(ctx, searchCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate search cache", zap.Error(err))
	}
}

// Start snapshots the catalog and queues a search, returning its ID.
// A memoised result for an identical catalog completes immediately.
func (s *CombinationService) Start(ctx context.Context) (*dto.StartSearchResponse, error) {
	snapshot := s.catalog.Snapshot()
	courses := lo.Filter(snapshot.Courses, func(c models.Course, _ int) bool {
		return len(c.Sections) > 0
	})
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyCatalog, "no sections to combine")
	}

	searchID := uuid.NewString()
	key := searchCachePrefix + fingerprint(courses)

	if s.cache != nil {
		var cached []models.Combination
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.store.put(searchID, &searchEntry{
				state:        models.SearchCompleted,
				progress:     100,
				combinations: cached,
			})
			if s.metrics != nil {
				s.metrics.RecordSearch(string(models.SearchCompleted), 0, true)
			}
			return &dto.StartSearchResponse{SearchID: searchID}, nil
		}
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "search queue unavailable")
	}

	searchCtx, cancel := context.WithCancel(context.Background())
	s.store.put(searchID, &searchEntry{state: models.SearchRunning, cancel: cancel})
	err := s.queue.Enqueue(jobs.Job{
		ID:   searchID,
		Type: "combination_search",
		Payload: searchPayload{
			SearchID: searchID,
			CacheKey: key,
			Courses:  courses,
			Ctx:      searchCtx,
		},
	})
	if err != nil {
		cancel()
		s.store.remove(searchID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue search")
	}

	return &dto.StartSearchResponse{SearchID: searchID}, nil
}

type searchPayload struct {
	SearchID string
	CacheKey string
	Courses  []models.Course
	Ctx      context.Context
}

// HandleSearchJob is the queue handler: it runs the backtracking search
// and records the outcome on the store.
func (s *CombinationService) HandleSearchJob(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(searchPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	start := time.Now()
	combinations, cancelled := s.run(payload.Ctx, payload.SearchID, payload.Courses)

	state := models.SearchCompleted
	if cancelled {
		state = models.SearchCancelled
	}
	s.store.finish(payload.SearchID, state, combinations)
	if s.metrics != nil {
		s.metrics.RecordSearch(string(state), time.Since(start), false)
	}
	s.logger.Info("combination search finished",
		zap.String("search_id", payload.SearchID),
		zap.String("state", string(state)),
		zap.Int("combinations", len(combinations)),
		zap.Duration("took", time.Since(start)))

	if !cancelled && s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, payload.CacheKey, combinations, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to memoise search result", zap.Error(err))
		}
	}
	return nil
}

// run performs the depth-first backtracking walk: courses in document
// order, sections in declaration order, so results come out in
// pre-order. Cancellation is checked at every course-index advance and
// never leaves a partial combination in the output.
func (s *CombinationService) run(ctx context.Context, searchID string, courses []models.Course) ([]models.Combination, bool) {
	combinations := []models.Combination{}
	current := make(models.Combination, 0, len(courses))
	chosenBlocks := make([][]models.TimeBlock, 0, len(courses))
	cancelled := false

	var backtrack func(index int)
	backtrack = func(index int) {
		if cancelled {
			return
		}
		if ctx.Err() != nil {
			cancelled = true
			return
		}
		s.store.setProgress(searchID, index*100/len(courses))

		if index == len(courses) {
			combinations = append(combinations, append(models.Combination(nil), current...))
			return
		}

		course := courses[index]
		for _, section := range course.Sections {
			if cancelled {
				return
			}
			compatible := true
			for _, blocks := range chosenBlocks {
				if AnyOverlap(section.Blocks, blocks) {
					compatible = false
					break
				}
			}
			if !compatible {
				continue
			}

			current = append(current, models.CombinationEntry{
				CourseID:    course.ID,
				CourseName:  course.Name,
				SectionID:   section.ID,
				SectionName: section.Name,
			})
			chosenBlocks = append(chosenBlocks, section.Blocks)
			backtrack(index + 1)
			current = current[:len(current)-1]
			chosenBlocks = chosenBlocks[:len(chosenBlocks)-1]
		}
	}

	backtrack(0)
	return combinations, cancelled
}

// Status reports a search's state; finished searches include results.
// A cancelled search is reported as cancelled, never as "no results".
func (s *CombinationService) Status(searchID string) (*dto.SearchStatusResponse, error) {
	entry, ok := s.store.get(searchID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "search not found or expired")
	}
	resp := &dto.SearchStatusResponse{
		SearchID: searchID,
		State:    entry.state,
		Progress: entry.progress,
		Total:    len(entry.combinations),
	}
	if entry.state != models.SearchRunning {
		resp.Combinations = entry.combinations
	}
	return resp, nil
}

// Cancel requests cooperative termination. Whatever was fully
// accumulated stays available on the final status.
func (s *CombinationService) Cancel(searchID string) error {
	entry, ok := s.store.get(searchID)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "search not found or expired")
	}
	if entry.state != models.SearchRunning {
		return appErrors.Clone(appErrors.ErrConflict, "search already finished")
	}
	s.store.cancel(searchID)
	return nil
}

// fingerprint builds a stable key over everything the search reads:
// course order, section order and every time block. Selection flags are
// deliberately excluded; the search ignores them.
func fingerprint(courses []models.Course) string {
	var sb strings.Builder
	for _, course := range courses {
		sb.WriteString(course.Name)
		sb.WriteByte('\n')
		for _, section := range course.Sections {
			sb.WriteString(section.Name)
			sb.WriteByte('|')
			for _, block := range section.Blocks {
				sb.WriteString(block.String())
				sb.WriteByte(';')
			}
			sb.WriteByte('\n')
		}
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// searchEntry is one tracked search.
type searchEntry struct {
	state        models.SearchState
	progress     int
	combinations []models.Combination
	cancel       context.CancelFunc
	expiresAt    time.Time
}

// searchStore keeps search entries with a TTL that starts once a search
// finishes; running searches never expire.
type searchStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*searchEntry
}

func newSearchStore(ttl time.Duration) *searchStore {
	return &searchStore{ttl: ttl, entries: make(map[string]*searchEntry)}
}

func (st *searchStore) put(id string, entry *searchEntry) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	if entry.state != models.SearchRunning {
		entry.expiresAt = time.Now().Add(st.ttl)
	}
	st.entries[id] = entry
}

func (st *searchStore) get(id string) (searchEntry, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	entry, ok := st.entries[id]
	if !ok {
		return searchEntry{}, false
	}
	snapshot := *entry
	snapshot.combinations = entry.combinations
	return snapshot, true
}

func (st *searchStore) setProgress(id string, progress int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if entry, ok := st.entries[id]; ok && entry.state == models.SearchRunning {
		entry.progress = progress
	}
}

func (st *searchStore) finish(id string, state models.SearchState, combinations []models.Combination) {
	st.mu.Lock()
	defer st.mu.Unlock()
	entry, ok := st.entries[id]
	if !ok {
		return
	}
	entry.state = state
	entry.combinations = combinations
	if state == models.SearchCompleted {
		entry.progress = 100
	}
	entry.expiresAt = time.Now().Add(st.ttl)
	if entry.cancel != nil {
		entry.cancel()
		entry.cancel = nil
	}
}

func (st *searchStore) cancel(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if entry, ok := st.entries[id]; ok && entry.cancel != nil {
		entry.cancel()
	}
}

func (st *searchStore) remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, id)
}

func (st *searchStore) sweepLocked() {
	now := time.Now()
	for id, entry := range st.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(st.entries, id)
		}
	}
}
