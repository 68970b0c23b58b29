// Package service implements the string analysis operations behind the REST
// routes: analyze-and-store, lookup, filtered listing, natural-language
// listing and deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/analyzer"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/datasource"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/nlquery"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/result"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
)

var (
	ErrNotFound           = datasource.ErrNotFound
	ErrDuplicate          = datasource.ErrDuplicate
	ErrConflictingFilters = errors.New("query parsed but resulted in conflicting filters")
)

// EmptyStoreNote is attached to natural-language results when nothing is stored yet.
const EmptyStoreNote = "No strings in database"

// Store is the persistence the service needs.
type Store interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, value string, props types.StringProperties) (*types.StringRecord, error)
	GetByValue(ctx context.Context, value string) (*types.StringRecord, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, filters types.FilterSet, page types.Page) ([]types.StringRecord, int, error)
	Delete(ctx context.Context, value string) error
}

// ListResult is one page of a listing.
type ListResult struct {
	Records []types.StringRecord
	Total   int
}

// NaturalLanguageResult is a listing driven by a free-text query.
type NaturalLanguageResult struct {
	ListResult
	Interpretation nlquery.Interpretation
	Note           string
}

// Options tunes the service's in-process caches and shared reads.
type Options struct {
	RecordCacheSize int           // records kept for lookups by value
	RecordCacheTTL  time.Duration // bounds staleness against writes by other processes
	QueryTimeout    time.Duration // deadline of a listing read shared by concurrent callers
}

const defaultQueryTimeout = 30 * time.Second

// StringService orchestrates analysis, persistence and caching
type StringService struct {
	store  Store
	parser *nlquery.Parser
	cache  *result.ResultCache
	group  singleflight.Group
	log    zerolog.Logger

	// records is a read-through cache by value. recordsGen is bumped on
	// every delete so a lookup that read the store before the delete does
	// not repopulate it.
	recordsMu  sync.Mutex
	recordsGen uint64
	records    *expirable.LRU[string, types.StringRecord]

	queryTimeout time.Duration
}

// NewStringService creates a new StringService.
func NewStringService(store Store, parser *nlquery.Parser, cache *result.ResultCache, opts Options, log zerolog.Logger) (*StringService, error) {
	if opts.RecordCacheSize <= 0 {
		return nil, fmt.Errorf("record cache size must be positive, got %d", opts.RecordCacheSize)
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}

	return &StringService{
		store:        store,
		parser:       parser,
		cache:        cache,
		records:      expirable.NewLRU[string, types.StringRecord](opts.RecordCacheSize, nil, opts.RecordCacheTTL),
		queryTimeout: opts.QueryTimeout,
		log:          log.With().Str("component", "string_service").Logger(),
	}, nil
}

// Health checks the store.
func (s *StringService) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Create analyzes value and stores it. A value that is already stored yields
// ErrDuplicate.
func (s *StringService) Create(ctx context.Context, value string) (*types.StringRecord, error) {
	gen := s.recordGeneration()

	record, err := s.store.Create(ctx, value, analyzer.Analyze(value))
	if err != nil {
		return nil, err
	}

	s.rememberRecord(gen, *record)
	s.cache.Purge()

	s.log.Info().
		Str("id", record.ID).
		Int("length", record.Properties.Length).
		Bool("is_palindrome", record.Properties.IsPalindrome).
		Msg("Analyzed and stored string")

	return record, nil
}

// Get returns the record for value.
func (s *StringService) Get(ctx context.Context, value string) (*types.StringRecord, error) {
	gen := s.recordGeneration()
	if record, ok := s.records.Get(value); ok {
		return &record, nil
	}

	record, err := s.store.GetByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	s.rememberRecord(gen, *record)
	return record, nil
}

func (s *StringService) recordGeneration() uint64 {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	return s.recordsGen
}

// rememberRecord caches record unless a delete ran since gen was read.
func (s *StringService) rememberRecord(gen uint64, record types.StringRecord) {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	if gen != s.recordsGen {
		return
	}
	s.records.Add(record.Value, record)
}

func (s *StringService) forgetRecord(value string) {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	s.recordsGen++
	s.records.Remove(value)
}

// List returns one page of records matching filters. Filters with
// min_length above max_length yield ErrConflictingFilters.
func (s *StringService) List(ctx context.Context, filters types.FilterSet, page types.Page) (*ListResult, error) {
	if !nlquery.Validate(filters) {
		return nil, ErrConflictingFilters
	}

	if cached, ok := s.cache.Get(filters, page); ok {
		return &ListResult{Records: cached.Records, Total: cached.Total}, nil
	}

	// Callers only share a read started in the same cache generation.
	gen := s.cache.Generation()
	key := fmt.Sprintf("%d:%s", gen, result.Key(filters, page))

	ch := s.group.DoChan(key, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.queryTimeout)
		defer cancel()

		records, total, err := s.store.List(readCtx, filters, page)
		if err != nil {
			return nil, err
		}
		s.cache.Store(gen, filters, page, records, total)
		return &ListResult{Records: records, Total: total}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug().Str("key", key).Msg("Shared in-flight listing")
		}
		return res.Val.(*ListResult), nil
	}
}

// FilterByNaturalLanguage interprets query and lists the matching records.
// A query whose filters contradict each other yields ErrConflictingFilters
// together with the interpretation.
func (s *StringService) FilterByNaturalLanguage(ctx context.Context, query string, page types.Page) (*NaturalLanguageResult, error) {
	interp := s.parser.Interpret(query)
	res := &NaturalLanguageResult{Interpretation: interp}

	if !interp.Valid() {
		s.log.Info().
			Str("query", query).
			Interface("filters", interp.Filters.Applied()).
			Msg("Rejected conflicting filters")
		return res, ErrConflictingFilters
	}

	stored, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if stored == 0 {
		res.Records = []types.StringRecord{}
		res.Note = EmptyStoreNote
		return res, nil
	}

	list, err := s.List(ctx, interp.Filters, page)
	if err != nil {
		return nil, err
	}
	res.ListResult = *list

	s.log.Debug().
		Str("query", query).
		Stringer("kind", interp.Kind).
		Int("total", list.Total).
		Msg("Executed natural language query")

	return res, nil
}

// Delete removes the record for value.
func (s *StringService) Delete(ctx context.Context, value string) error {
	err := s.store.Delete(ctx, value)
	if errors.Is(err, ErrNotFound) {
		// Gone already, possibly deleted by another process.
		s.forgetRecord(value)
		return err
	}
	if err != nil {
		return err
	}
	s.forgetRecord(value)
	s.cache.Purge()

	s.log.Info().Str("value", value).Msg("Deleted string")
	return nil
}
