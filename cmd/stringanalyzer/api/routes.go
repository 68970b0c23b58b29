package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/service"
	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
	"github.com/SanteonNL/stringanalyzer/util"
)

const (
	maxValueLength = 10000
	maxQueryLength = 500
	maxBodyBytes   = 1 << 20
)

// Service is what the routes need from the string service.
type Service interface {
	Health(ctx context.Context) error
	Create(ctx context.Context, value string) (*types.StringRecord, error)
	Get(ctx context.Context, value string) (*types.StringRecord, error)
	List(ctx context.Context, filters types.FilterSet, page types.Page) (*service.ListResult, error)
	FilterByNaturalLanguage(ctx context.Context, query string, page types.Page) (*service.NaturalLanguageResult, error)
	Delete(ctx context.Context, value string) error
}

type StringRouter struct {
	svc Service
	log zerolog.Logger
}

func NewStringRouter(svc Service, log zerolog.Logger) *StringRouter {
	return &StringRouter{
		svc: svc,
		log: log,
	}
}

type listResponse struct {
	Data           []types.StringRecord   `json:"data"`
	Count          int                    `json:"count"`
	FiltersApplied map[string]interface{} `json:"filters_applied"`
}

type naturalLanguageResponse struct {
	Data             []types.StringRecord   `json:"data"`
	Count            int                    `json:"count"`
	InterpretedQuery map[string]interface{} `json:"interpreted_query"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (sr *StringRouter) SetupRoutes() http.Handler {
	router := mux.NewRouter()

	router.Use(hlog.NewHandler(sr.log))
	router.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Handled request")
	}))
	router.Use(recoverer)

	router.HandleFunc("/", sr.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", sr.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/strings", sr.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/strings", sr.handleList).Methods(http.MethodGet)
	router.HandleFunc("/strings/filter-by-natural-language", sr.handleNaturalLanguage).Methods(http.MethodGet)
	router.HandleFunc("/strings/{value:.+}", sr.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/strings/{value:.+}", sr.handleDelete).Methods(http.MethodDelete)

	return router
}

func (sr *StringRouter) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, map[string]string{"message": "String Analyzer Service is running!"})
}

func (sr *StringRouter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := sr.svc.Health(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Health check failed")
		respondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondWithJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (sr *StringRouter) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	raw, ok := body["value"]
	if !ok {
		respondWithError(w, r, http.StatusBadRequest, `Missing "value" field`)
		return
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		respondWithError(w, r, http.StatusUnprocessableEntity, `"value" must be a string`)
		return
	}
	if n := utf8.RuneCountInString(value); n == 0 || n > maxValueLength {
		respondWithError(w, r, http.StatusUnprocessableEntity,
			fmt.Sprintf(`"value" must be between 1 and %d characters`, maxValueLength))
		return
	}

	record, err := sr.svc.Create(r.Context(), value)
	if err != nil {
		sr.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, record)
}

func (sr *StringRouter) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := sr.svc.Get(r.Context(), mux.Vars(r)["value"])
	if err != nil {
		sr.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, record)
}

func (sr *StringRouter) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := sr.svc.Delete(r.Context(), mux.Vars(r)["value"]); err != nil {
		sr.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (sr *StringRouter) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := sr.svc.List(r.Context(), filters, page)
	if errors.Is(err, service.ErrConflictingFilters) {
		respondWithError(w, r, http.StatusBadRequest, "min_length cannot be greater than max_length")
		return
	}
	if err != nil {
		sr.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, r, http.StatusOK, listResponse{
		Data:           res.Records,
		Count:          res.Total,
		FiltersApplied: filters.Applied(),
	})
}

func (sr *StringRouter) handleNaturalLanguage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		respondWithError(w, r, http.StatusBadRequest, `Missing "query" parameter`)
		return
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		respondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf(`"query" must be at most %d characters`, maxQueryLength))
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := sr.svc.FilterByNaturalLanguage(r.Context(), query, page)
	if errors.Is(err, service.ErrConflictingFilters) {
		respondWithError(w, r, http.StatusUnprocessableEntity, "Query parsed but resulted in conflicting filters")
		return
	}
	if err != nil {
		sr.respondWithServiceError(w, r, err)
		return
	}

	interpreted := map[string]interface{}{
		"original":       query,
		"kind":           res.Interpretation.Kind,
		"parsed_filters": res.Interpretation.Filters.Applied(),
	}
	if res.Note != "" {
		interpreted["note"] = res.Note
	}

	respondWithJSON(w, r, http.StatusOK, naturalLanguageResponse{
		Data:             res.Records,
		Count:            res.Total,
		InterpretedQuery: interpreted,
	})
}

func (sr *StringRouter) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, r, http.StatusNotFound, "String does not exist in the system")
	case errors.Is(err, service.ErrDuplicate):
		respondWithError(w, r, http.StatusConflict, "String already exists in the system")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		respondWithError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// Helper functions

func parsePage(r *http.Request) (types.Page, error) {
	page := types.Page{Skip: 0, Limit: types.DefaultLimit}
	params := r.URL.Query()

	if v := params.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return page, fmt.Errorf("skip must be a non-negative integer")
		}
		page.Skip = skip
	}
	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > types.MaxLimit {
			return page, fmt.Errorf("limit must be an integer between 1 and %d", types.MaxLimit)
		}
		page.Limit = limit
	}
	return page, nil
}

func parseFilters(r *http.Request) (types.FilterSet, error) {
	var filters types.FilterSet
	params := r.URL.Query()

	if v := params.Get("is_palindrome"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filters, fmt.Errorf("is_palindrome must be true or false")
		}
		filters.IsPalindrome = util.BoolPtr(b)
	}

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"min_length", &filters.MinLength},
		{"max_length", &filters.MaxLength},
		{"word_count", &filters.WordCount},
	} {
		v := params.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filters, fmt.Errorf("%s must be a non-negative integer", p.name)
		}
		*p.dst = util.IntPtr(n)
	}

	if v := params.Get("contains_character"); v != "" {
		if utf8.RuneCountInString(v) != 1 {
			return filters, fmt.Errorf("contains_character must be a single character")
		}
		filters.ContainsCharacter = util.StringPtr(v)
	}

	return filters, nil
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("Recovered from panic")
				respondWithError(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func respondWithError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	respondWithJSON(w, r, status, errorResponse{Detail: detail})
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg("Failed to write response body")
	}
}
